package entities

import (
	"fmt"
	"strings"
	"time"
)

// Mood is the closed set of moods a journal entry can carry.
type Mood string

const (
	MoodJoyful     Mood = "Joyful"
	MoodContent    Mood = "Content"
	MoodNeutral    Mood = "Neutral"
	MoodStressed   Mood = "Stressed"
	MoodSad        Mood = "Sad"
	MoodReflective Mood = "Reflective"
)

// Moods lists every valid mood value, in display order.
func Moods() []Mood {
	return []Mood{MoodJoyful, MoodContent, MoodNeutral, MoodStressed, MoodSad, MoodReflective}
}

// Valid reports whether m is a member of the closed mood set.
func (m Mood) Valid() bool {
	switch m {
	case MoodJoyful, MoodContent, MoodNeutral, MoodStressed, MoodSad, MoodReflective:
		return true
	}
	return false
}

// JournalDraft is the structured summary produced from a session transcript.
type JournalDraft struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Mood    Mood     `json:"mood"`
	Events  []string `json:"events"`
	Tags    []string `json:"tags"`
}

// JournalEntry is a finished journal record kept in session history.
type JournalEntry struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Mood          Mood      `json:"mood"`
	Events        []string  `json:"events"`
	Tags          []string  `json:"tags"`
	Transcription string    `json:"full_transcription"`
}

// historyContextLimit caps how many past entries feed prompt context.
const historyContextLimit = 3

const noHistoryContext = "使用者沒有過去的日記條目。"

func recentHistoryLines(history []JournalEntry) string {
	n := len(history)
	if n > historyContextLimit {
		n = historyContextLimit
	}

	var lines []string
	for _, entry := range history[:n] {
		lines = append(lines, fmt.Sprintf("- 日期 %s, 使用者感覺 '%s' 並討論了: \"%s\".",
			entry.Date.Format("2006-01-02"), entry.Mood, entry.Title))
	}
	return strings.Join(lines, "\n")
}

// ConversationHistoryContext renders recent entries as prompt context for the
// live conversational model.
func ConversationHistoryContext(history []JournalEntry) string {
	if len(history) == 0 {
		return noHistoryContext
	}
	return fmt.Sprintf("作為參考，這是使用者最近的幾篇日記摘要：\n%s\n請在對話中自然地運用這些資訊來提出有見解的後續問題或注意模式，但僅在相關時才這樣做。",
		recentHistoryLines(history))
}

// SummaryHistoryContext renders recent entries as prompt context for the
// transcript summarizer.
func SummaryHistoryContext(history []JournalEntry) string {
	if len(history) == 0 {
		return noHistoryContext
	}
	return fmt.Sprintf("作為參考，這是使用者最近的幾篇日記摘要：\n%s\n請利用這些資訊建立一個更有洞察力的摘要，並在適當時與過去的主題建立關聯。",
		recentHistoryLines(history))
}
