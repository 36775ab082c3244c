package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/entity"
	"github.com/joseph-ayodele/study-planner/internal/export"
	"github.com/joseph-ayodele/study-planner/internal/orchestrator"
	"github.com/joseph-ayodele/study-planner/internal/reader"
)

var (
	scheduleName     string
	scheduleFreeTime string
	scheduleOut      string
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule [syllabus...]",
		Short: "Build a study schedule from one or more syllabi",
		Long: `Extract exams and deadlines from each syllabus and plan study sessions
around the free time you describe. Writes study-schedule.ics and
study-schedule.xlsx to the output directory.

Examples:
  studyplanner schedule --name Ada --free-time "weekday evenings 7-9pm" bio.pdf chem.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSchedule,
	}
	cmd.Flags().StringVarP(&scheduleName, "name", "n", "", "your name")
	cmd.Flags().StringVarP(&scheduleFreeTime, "free-time", "f", "", "when you are free to study")
	cmd.Flags().StringVarP(&scheduleOut, "out", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("free-time")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, logger, err := setup()
	if err != nil {
		return err
	}

	docs := make([]entity.Document, 0, len(args))
	for _, path := range args {
		doc, err := reader.Open(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	o := a.Orchestrator(constants.VariantSchedule)
	if err := o.SubmitProfile(entity.UserProfile{Name: scheduleName, FreeTime: scheduleFreeTime}); err != nil {
		return err
	}
	if err := o.Select(docs...); err != nil {
		return err
	}
	if err := o.Generate(cmd.Context()); err != nil {
		return runError(o, err)
	}

	snap := o.Snapshot()
	if snap.Schedule == nil {
		return errors.New(constants.MsgUnknown)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d key dates:\n", len(snap.Events))
	for _, e := range snap.Events {
		fmt.Fprintf(out, "  %s  %s: %s\n", e.Date, e.CourseName, e.EventName)
	}
	fmt.Fprintf(out, "\nStudy schedule for %s (%d sessions):\n", snap.Profile.Name, len(snap.Schedule.Schedule))
	for _, e := range snap.Schedule.Schedule {
		fmt.Fprintf(out, "  %s -> %s  %s\n", e.Start, e.End, e.Title)
	}
	printWarnings(cmd, snap.Warnings)

	icsName, icsData := export.ICS(*snap.Schedule)
	if err := writeFile(cmd, scheduleOut, icsName, icsData); err != nil {
		return err
	}
	xlsx, err := export.NewService(logger).ScheduleXLSX(*snap.Schedule)
	if err != nil {
		return err
	}
	return writeFile(cmd, scheduleOut, constants.ScheduleXLSXFileName, xlsx)
}

// runError prefers the user-facing message the orchestrator recorded.
func runError(o *orchestrator.Orchestrator, err error) error {
	if msg := o.Snapshot().ErrorMessage; msg != "" {
		return errors.New(msg)
	}
	msg, _ := orchestrator.Describe(err)
	return errors.New(msg)
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}

func writeFile(cmd *cobra.Command, dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
