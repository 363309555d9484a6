package entities

import "fmt"

// Persona selects the assistant's character for a session. It is a closed
// enumeration; every persona maps to a fixed profile via PersonaProfileFor.
type Persona string

const (
	PersonaWarmHealer        Persona = "warm_healer"
	PersonaProfessionalCoach Persona = "professional_coach"
	PersonaCuteCharacter     Persona = "cute_character"
)

// Personas lists every supported persona.
func Personas() []Persona {
	return []Persona{PersonaWarmHealer, PersonaProfessionalCoach, PersonaCuteCharacter}
}

// Valid reports whether p names a known persona.
func (p Persona) Valid() bool {
	switch p {
	case PersonaWarmHealer, PersonaProfessionalCoach, PersonaCuteCharacter:
		return true
	}
	return false
}

// PersonaProfile holds everything persona-dependent: the system instructions
// for each model call and the synthesized voice identifiers.
type PersonaProfile struct {
	// ConversationInstruction shapes the live voice conversation.
	ConversationInstruction string
	// SummaryInstruction shapes the transcript-to-journal summarization.
	SummaryInstruction string
	// GreetingInstruction shapes the one-sentence opening line.
	GreetingInstruction string
	// Voice is the prebuilt voice for the live session.
	Voice string
	// GreetingVoice is the prebuilt voice for greeting synthesis.
	GreetingVoice string
}

const (
	liveVoice     = "Zephyr"
	greetingVoice = "Kore"
)

var personaProfiles = map[Persona]PersonaProfile{
	PersonaWarmHealer: {
		ConversationInstruction: "你是 EchoDiary，一位溫暖且富有同理心的朋友。請耐心傾聽，並以親切和理解的態度回應。你的目標是為使用者創造一個安全、療癒的空間來表達自己。請讓你的回應保持簡短和對話性。",
		SummaryInstruction:      "你是一位體貼的日記助理。你的使用者剛完成一次語音日記。你的任務是分析提供的逐字稿，並將其整理成一篇反思性的日記。請辨識核心情緒、以同理心總結重點、提取重要事件，並建立相關標籤。語氣應溫和且充滿理解。",
		GreetingInstruction:     "你是 EchoDiary，一位溫暖且富有同理心的朋友。你的任務是根據使用者的日記歷史（如果有的話）產生一句溫柔、個人化的問候語來開始對話。問候語應該簡短、自然，並且只有一句話。請直接回覆那句問候語，不要包含任何其他文字或引號。",
		Voice:                   liveVoice,
		GreetingVoice:           greetingVoice,
	},
	PersonaProfessionalCoach: {
		ConversationInstruction: "你是 EchoDiary，一位專業的人生教練。你的語氣是鼓舞人心且富有洞察力的。請提出澄清性的問題，幫助使用者獲得觀點。你的目標是引導他們進行反思，而不僅僅是傾聽。請讓你的回應專注且以行動為導向。",
		SummaryInstruction:      "你是一位有洞察力的日記分析師。你的客戶剛完成一次語音記錄。請分析逐字稿以建立一篇結構化的日記。確定主要情緒、提供專注於挑戰與突破的簡潔摘要、列出可執行的事件或主題，並生成用於追蹤進度的標籤。語氣應客觀且鼓舞人心。",
		GreetingInstruction:     "你是 EchoDiary，一位專業的人生教練。你的任務是根據使用者的日記歷史（如果有的話）產生一句清晰、鼓舞人心的話來開始對話。問候語應該簡潔有力，並且只有一句話。請直接回覆那句問候語，不要包含任何其他文字或引號。",
		Voice:                   liveVoice,
		GreetingVoice:           greetingVoice,
	},
	PersonaCuteCharacter: {
		ConversationInstruction: "你是 EchoDiary，一個可愛又開朗的機器人朋友！你的聲音充滿了活潑的能量。你充滿好奇心和支持，就像一個虛擬寵物。請使用簡單、正面的語言，並以驚奇和鼓勵的態度作出反應。回應要簡短可愛喔。",
		SummaryInstruction:      "你是一個快樂的小機器人，幫助大家寫日記！你的朋友剛告訴你他的一天。閱讀聊天內容，創作一頁超可愛的日記。弄清楚他們是開心還是難過，寫一個簡短有趣的摘要，列出發生的酷事，並製作一些有趣的標籤。要簡單又開朗喔！",
		GreetingInstruction:     "你是 EchoDiary，一個可愛又開朗的機器人朋友！你的任務是根據使用者的日記歷史（如果有的話）產生一句活潑又可愛的話來打招呼！問候語應該非常簡短、充滿活力，並且只有一句話。請直接回覆那句問候語，不要包含任何其他文字或引號。",
		Voice:                   liveVoice,
		GreetingVoice:           greetingVoice,
	},
}

var fallbackProfile = PersonaProfile{
	ConversationInstruction: "你是一位友善且樂於助人的 AI 助理。",
	SummaryInstruction:      "你是一個將對話摘要為日記條目的 AI 助理。",
	GreetingInstruction:     "你是 EchoDiary。請產生一句友善的問候來開始對話。問候語應該只有一句話。請直接回覆那句問候語，不要包含任何其他文字或引號。",
	Voice:                   liveVoice,
	GreetingVoice:           greetingVoice,
}

// PersonaProfileFor returns the profile for p, falling back to a generic
// assistant profile for unknown values.
func PersonaProfileFor(p Persona) PersonaProfile {
	if profile, ok := personaProfiles[p]; ok {
		return profile
	}
	return fallbackProfile
}

// ConversationInstruction builds the full live-session system instruction for
// a persona given recent journal history.
func ConversationInstruction(p Persona, history []JournalEntry) string {
	profile := PersonaProfileFor(p)
	return fmt.Sprintf("%s\n\n%s\n\n使用者的對話將以繁體中文進行，請你也全程使用繁體中文回應。",
		profile.ConversationInstruction, ConversationHistoryContext(history))
}

// SummaryInstruction builds the summarizer system instruction for a persona
// given recent journal history.
func SummaryInstruction(p Persona, history []JournalEntry) string {
	profile := PersonaProfileFor(p)
	return fmt.Sprintf("%s\n\n%s", profile.SummaryInstruction, SummaryHistoryContext(history))
}
