// Package transcript folds incremental speaker-tagged text deltas into a
// live line list and a durable, role-prefixed session log.
package transcript

import (
	"fmt"
	"strings"

	"github.com/echodiary/echodiary/domain/entities"
)

// Assembler is a pure reducer over transcript deltas and turn-completion
// events. It is not safe for concurrent use; the session dispatch loop is its
// single writer.
type Assembler struct {
	lines     []entities.TranscriptLine
	userBuf   strings.Builder
	agentBuf  strings.Builder
	userLine  int
	agentLine int
	log       strings.Builder
}

// New returns an empty assembler.
func New() *Assembler {
	return &Assembler{userLine: -1, agentLine: -1}
}

// Apply appends a delta to the speaker's open turn buffer and updates the
// live line list: while the speaker's turn is open its latest line is
// replaced in place, even when deltas from the two speakers interleave;
// otherwise a new line is appended.
func (a *Assembler) Apply(speaker entities.Speaker, delta string) {
	buf, idx := a.turnFor(speaker)
	if buf == nil {
		return
	}
	buf.WriteString(delta)

	line := entities.TranscriptLine{Speaker: speaker, Text: buf.String()}
	if *idx >= 0 {
		a.lines[*idx] = line
		return
	}
	a.lines = append(a.lines, line)
	*idx = len(a.lines) - 1
}

// CompleteTurn flushes non-empty turn buffers into the durable log, user
// first, then resets both buffers. Each turn is flushed exactly once.
func (a *Assembler) CompleteTurn() {
	if text := strings.TrimSpace(a.userBuf.String()); text != "" {
		fmt.Fprintf(&a.log, "%s: %s\n", entities.SpeakerUser.Label(), text)
	}
	if text := strings.TrimSpace(a.agentBuf.String()); text != "" {
		fmt.Fprintf(&a.log, "%s: %s\n", entities.SpeakerAgent.Label(), text)
	}
	a.userBuf.Reset()
	a.agentBuf.Reset()
	a.userLine = -1
	a.agentLine = -1
}

// Lines returns a copy of the live transcript line sequence.
func (a *Assembler) Lines() []entities.TranscriptLine {
	out := make([]entities.TranscriptLine, len(a.lines))
	copy(out, a.lines)
	return out
}

// DurableLog returns the accumulated role-prefixed session log.
func (a *Assembler) DurableLog() string {
	return a.log.String()
}

// Reset clears all state for a new session.
func (a *Assembler) Reset() {
	a.lines = nil
	a.userBuf.Reset()
	a.agentBuf.Reset()
	a.userLine = -1
	a.agentLine = -1
	a.log.Reset()
}

func (a *Assembler) turnFor(speaker entities.Speaker) (*strings.Builder, *int) {
	switch speaker {
	case entities.SpeakerUser:
		return &a.userBuf, &a.userLine
	case entities.SpeakerAgent:
		return &a.agentBuf, &a.agentLine
	}
	return nil, nil
}
