package entities

// Speaker identifies who produced a piece of transcript text.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Label returns the display label used in transcript lines and the durable
// session log.
func (s Speaker) Label() string {
	switch s {
	case SpeakerUser:
		return "使用者"
	case SpeakerAgent:
		return "AI"
	}
	return string(s)
}

// TranscriptLine is one speaker-attributed line of the live transcript. While
// a turn is open the latest line for that speaker is replaced in place as
// deltas arrive.
type TranscriptLine struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
