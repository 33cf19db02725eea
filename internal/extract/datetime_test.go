package extract_test

import (
	"testing"
	"time"

	"hibiki/internal/extract"
)

// anchor is a Monday morning, chosen so clock and weekday arithmetic in the
// cases below is easy to follow.
var anchor = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestDatetime_RecognizedForms(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"in 30 minutes", anchor.Add(30 * time.Minute)},
		{"in 1 min", anchor.Add(time.Minute)},
		{"in 2 hours", anchor.Add(2 * time.Hour)},
		{"in 3 days", anchor.AddDate(0, 0, 3)},
		{"tomorrow", anchor.AddDate(0, 0, 1)},
		{"next week", anchor.AddDate(0, 0, 7)},
		{"next month", anchor.AddDate(0, 0, 30)},
		{"at 2:30 pm", time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"at 10 am", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		{"at 12 pm", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		// 7 am is already past the 9 am anchor, so it rolls to tomorrow.
		{"at 7 am", time.Date(2025, 3, 11, 7, 0, 0, 0, time.UTC)},
		{"at 12 am", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)},
		// The anchor is a Monday: Friday is four days out.
		{"friday", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)},
		// A bare weekday naming today means the same day next week.
		{"monday", anchor.AddDate(0, 0, 7)},
		{"next friday", time.Date(2025, 3, 21, 9, 0, 0, 0, time.UTC)},
		{"next monday", anchor.AddDate(0, 0, 7)},
	}

	for _, tc := range tests {
		got, ok := extract.Datetime(tc.text, anchor)
		if !ok {
			t.Errorf("Datetime(%q) not recognized", tc.text)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Datetime(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestDatetime_EmbeddedInSentence(t *testing.T) {
	got, ok := extract.Datetime("remind me to call mom in 30 minutes please", anchor)
	if !ok {
		t.Fatal("expected a match inside a longer sentence")
	}
	if want := anchor.Add(30 * time.Minute); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDatetime_Unrecognized(t *testing.T) {
	tests := []string{
		"",
		"whenever you like",
		"at some point",
		"at 25:00",   // hour out of range
		"at 9:75 pm", // minute out of range
	}
	for _, text := range tests {
		if _, ok := extract.Datetime(text, anchor); ok {
			t.Errorf("Datetime(%q) matched, want no match", text)
		}
	}
}
