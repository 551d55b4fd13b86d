package subtitle

import (
	"strings"
	"testing"
)

func TestRenderSRT(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 2.5, Text: " Hej och välkommen. "},
		{Start: 2.5, End: 3661.25, Text: "Andra segmentet."},
	}

	got := RenderSRT(segments)
	want := "1\n00:00:00,000 --> 00:00:02,500\nHej och välkommen.\n\n" +
		"2\n00:00:02,500 --> 01:01:01,250\nAndra segmentet.\n\n"
	if got != want {
		t.Errorf("RenderSRT() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderSRTSpeakers(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Text: "Hello", Speaker: "SPEAKER_00"},
	}
	got := RenderSRT(segments)
	if !strings.Contains(got, "SPEAKER_00: Hello") {
		t.Errorf("speaker prefix missing: %q", got)
	}
}

func TestRenderSRTEmpty(t *testing.T) {
	if got := RenderSRT(nil); got != "" {
		t.Errorf("RenderSRT(nil) = %q, want empty", got)
	}
}

func TestSrtTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{59.999, "00:00:59,999"},
		{60, "00:01:00,000"},
		{3600.001, "01:00:00,001"},
		{-5, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := srtTimestamp(tt.in); got != tt.want {
			t.Errorf("srtTimestamp(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlainText(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:02,500\nFirst line.\n\n" +
		"2\n00:00:02,500 --> 00:00:04,000\nSecond line.\n\n"

	got := PlainText(srt)
	want := "First line.\nSecond line.\n"
	if got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestPlainTextKeepsNumericDialogue(t *testing.T) {
	srt := RenderSRT([]Segment{
		{Start: 0, End: 1, Text: "42"},
		{Start: 1, End: 2.5, Text: "is the answer"},
	})

	got := PlainText(srt)
	want := "42\nis the answer\n"
	if got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestPlainTextEmpty(t *testing.T) {
	if got := PlainText(""); got != "" {
		t.Errorf("PlainText(\"\") = %q", got)
	}
	// Only structure, no dialogue.
	if got := PlainText("1\n00:00:00,000 --> 00:00:01,000\n\n"); got != "" {
		t.Errorf("PlainText(structure only) = %q", got)
	}
}
