package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

func TestDecodeAnswer(t *testing.T) {
	schema := BuildExtractionSchema()

	t.Run("Given a fenced JSON answer When DecodeAnswer Then the fence is stripped", func(t *testing.T) {
		out, err := DecodeAnswer("```json\n[{\"courseName\":\"BIO\",\"eventName\":\"Quiz\",\"date\":\"2024-10-05\"}]\n```", schema)

		require.NoError(t, err)
		assert.JSONEq(t, `[{"courseName":"BIO","eventName":"Quiz","date":"2024-10-05"}]`, string(out))
	})

	t.Run("Given an empty array When DecodeAnswer Then it is a valid answer", func(t *testing.T) {
		out, err := DecodeAnswer(" [] ", schema)

		require.NoError(t, err)
		assert.Equal(t, "[]", string(out))
	})

	t.Run("Given blank text When DecodeAnswer Then MalformedResponse", func(t *testing.T) {
		_, err := DecodeAnswer("  \n", schema)

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given a missing required key When DecodeAnswer Then MalformedResponse", func(t *testing.T) {
		_, err := DecodeAnswer(`[{"courseName":"BIO","date":"2024-10-05"}]`, schema)

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given an object where an array is required When DecodeAnswer Then MalformedResponse", func(t *testing.T) {
		_, err := DecodeAnswer(`{"courseName":"BIO"}`, schema)

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `[]`, StripCodeFence("  []  "))
}

func TestToGeminiSchema(t *testing.T) {
	out := ToGeminiSchema(BuildScheduleSchema())

	assert.Equal(t, "OBJECT", out["type"])
	assert.NotContains(t, out, "additionalProperties")
	props := out["properties"].(map[string]any)
	sched := props["schedule"].(map[string]any)
	assert.Equal(t, "ARRAY", sched["type"])
	item := sched["items"].(map[string]any)
	assert.Equal(t, "OBJECT", item["type"])
	assert.NotContains(t, item, "additionalProperties")
	assert.Equal(t, []string{"title", "start", "end"}, item["required"])
	assert.Equal(t, "STRING", props["ical"].(map[string]any)["type"])
}

func TestWrapArraySchema(t *testing.T) {
	wrapped, ok := WrapArraySchema(BuildFlashcardSchema())
	require.True(t, ok)
	assert.Equal(t, "object", wrapped["type"])
	assert.Equal(t, []string{"items"}, wrapped["required"])

	same, ok := WrapArraySchema(BuildScheduleSchema())
	assert.False(t, ok)
	assert.Equal(t, "object", same["type"])
}

func TestPrompts(t *testing.T) {
	t.Run("Given a year When building the extraction prompt Then partial dates resolve against it", func(t *testing.T) {
		p := BuildExtractionPrompt("Midterm: Oct 5", 2024)

		assert.Contains(t, p, "It is now the year 2024")
		assert.Contains(t, p, `"2024-10-05"`)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "Midterm: Oct 5"))
	})

	t.Run("Given a profile and events When building the schedule prompt Then all inputs are embedded", func(t *testing.T) {
		now := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
		events := []entity.ExtractedEvent{{CourseName: "CS 101", EventName: "Final", Date: "2024-12-12"}}

		p, err := BuildSchedulePrompt(entity.UserProfile{Name: "Ada", FreeTime: "weekday evenings"}, events, now)

		require.NoError(t, err)
		assert.Contains(t, p, "named Ada")
		assert.Contains(t, p, "weekday evenings")
		assert.Contains(t, p, "Mon Sep 02 2024")
		assert.Contains(t, p, "5:00 PM (17:00)")
		assert.Contains(t, p, "\"courseName\": \"CS 101\"")
		assert.Contains(t, p, "BEGIN:VCALENDAR")
	})

	t.Run("Given a transcript When building the flashcard prompt Then it is fenced by separators", func(t *testing.T) {
		p := BuildFlashcardPrompt("Mitochondria produce ATP.")

		assert.Contains(t, p, "---\nMitochondria produce ATP.\n---")
	})
}

func TestAPIError(t *testing.T) {
	var err error = &APIError{Status: 429, Message: "quota"}

	assert.Equal(t, "Status: 429. quota", err.Error())
	assert.True(t, errors.Is(err, common.ErrAPI))
	assert.Equal(t, common.CodeAPI, common.KindCode(err))
}

func TestRedactURL(t *testing.T) {
	got := RedactURL("https://example.test/v1beta/models/m:generateContent?key=secret")

	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "key=REDACTED")
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	data, _ := json.Marshal([]map[string]string{{"question": "q", "answer": "a"}})

	assert.NoError(t, ValidateJSONAgainstSchema(BuildFlashcardSchema(), data))
	assert.Error(t, ValidateJSONAgainstSchema(BuildFlashcardSchema(), []byte(`[{"question":"q","answer":"a","extra":1}]`)))
}
