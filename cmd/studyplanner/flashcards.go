package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/export"
	"github.com/joseph-ayodele/study-planner/internal/reader"
)

var flashcardsOut string

func flashcardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flashcards [transcript]",
		Short: "Generate question/answer flashcards from a lecture transcript",
		Long: `Generate flashcards from a single transcript (.pdf, .txt or .md).
Writes <name>-flashcards.txt and <name>-flashcards.html to the output directory.

Examples:
  studyplanner flashcards lecture-03.txt -o cards/`,
		Args: cobra.ExactArgs(1),
		RunE: runFlashcards,
	}
	cmd.Flags().StringVarP(&flashcardsOut, "out", "o", ".", "output directory")
	return cmd
}

func runFlashcards(cmd *cobra.Command, args []string) error {
	a, logger, err := setup()
	if err != nil {
		return err
	}
	doc, err := reader.Open(args[0])
	if err != nil {
		return err
	}

	o := a.Orchestrator(constants.VariantFlashcards)
	if err := o.Select(doc); err != nil {
		return err
	}
	if err := o.Generate(cmd.Context()); err != nil {
		return runError(o, err)
	}

	snap := o.Snapshot()
	if len(snap.Flashcards) == 0 {
		return errors.New(constants.MsgEmptyFlashcards)
	}
	fmt.Fprintln(cmd.OutOrStdout(), export.FlashcardsText(snap.Flashcards))
	fmt.Fprintln(cmd.OutOrStdout())

	if err := writeFile(cmd, flashcardsOut, export.FlashcardsFileName(doc.Name), []byte(export.FlashcardsText(snap.Flashcards))); err != nil {
		return err
	}
	html, err := export.NewService(logger).FlashcardsHTML(constants.BaseName(doc.Name), snap.Flashcards)
	if err != nil {
		return err
	}
	return writeFile(cmd, flashcardsOut, export.FlashcardsHTMLFileName(doc.Name), html)
}
