// Package subtitle renders timed transcript segments as SRT and derives
// plain-text companions from SRT content.
package subtitle

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Segment is one timed piece of transcribed speech. Start and End are
// offsets from the beginning of the audio. Speaker is empty unless the
// backend ran diarization.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// RenderSRT renders segments as an SRT document with 1-based sequence
// numbers. Diarized segments get the speaker prefixed to the text.
func RenderSRT(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if seg.Speaker != "" {
			text = seg.Speaker + ": " + text
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
	}
	return b.String()
}

// srtTimestamp formats seconds as the SRT HH:MM:SS,mmm form.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

var (
	reIndex = regexp.MustCompile(`^\d+$`)
	reTime  = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)
)

// PlainText strips sequence numbers and timestamp lines from SRT content,
// keeping the dialogue. Blocks are parsed structurally: the leading index
// and timestamp lines of each blank-line-separated block are dropped, so
// a dialogue line that happens to be a bare number survives.
func PlainText(srt string) string {
	var lines []string
	for _, block := range strings.Split(srt, "\n\n") {
		raw := strings.Split(strings.TrimSpace(block), "\n")
		if len(raw) >= 2 &&
			reIndex.MatchString(strings.TrimSpace(raw[0])) &&
			reTime.MatchString(strings.TrimSpace(raw[1])) {
			raw = raw[2:]
		}
		for _, line := range raw {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
