package models

import "time"

// TranscriptSegment is one timed caption line captured from the video
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the captured transcript of one video. It is immutable once
// captured; the pipeline only ever reads it.
type Transcript struct {
	VideoID    string              `json:"video_id"`
	Title      string              `json:"title"`
	Segments   []TranscriptSegment `json:"segments,omitempty"`
	FullText   string              `json:"full_text"`
	CapturedAt time.Time           `json:"captured_at"`
}

// Text returns the flattened transcript text, falling back to joining
// segments when the extension only supplied timed lines.
func (t *Transcript) Text() string {
	if t.FullText != "" {
		return t.FullText
	}
	text := ""
	for i, seg := range t.Segments {
		if i > 0 {
			text += " "
		}
		text += seg.Text
	}
	return text
}
