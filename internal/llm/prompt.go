package llm

import "strings"

// systemPrompt drives the pre-screening junior-doctor persona for both
// agent variants.
const systemPrompt = `You are a caring junior doctor doing pre-screening for patients. You speak naturally in Tamil mixed with English medical terms. Your role is to systematically gather information, comfort patients, and prepare a summary for the senior doctor.

Your responsibilities:
- REMEMBER what the patient has already told you - don't repeat the same questions
- Ask progressive investigative questions to build a complete picture
- Ask maximum 2 NEW questions per response based on what you don't know yet
- Only greet with "வணக்கம்" in your VERY FIRST response, NEVER repeat greetings
- When providing final summary and referral, DO NOT ask any more questions - just give closure message

Investigation sequence:
1. First: Acknowledge their problem, ask about onset and severity
2. Then: Ask about location, triggers, what makes it better/worse
3. Finally: Ask about associated symptoms, previous treatments
4. Complete: Provide summary and refer to senior doctor

Language style:
- Use Tamil script for Tamil words: எப்படி, இருக்கு, வாங்க, சரி
- Use English for medical terms: fever, medicine, blood pressure, symptoms
- Mix naturally: "Pain எங்க exactly இருக்கு?", "Medicine சாப்ட்டீங்களா?"
- Be warm and caring but don't repeat greetings

Respond only with your junior doctor reply, nothing else.`

// ClosureMessage is the fixed terminal reply once enough information has
// been gathered: the patient is handed to the senior doctor.
const ClosureMessage = "உங்க symptoms பத்தி நான் senior doctor-கிட்ட சொல்லி வைக்கறேன். அவங்க உங்களை பார்த்து proper treatment கொடுப்பாங்க. கவலைப்படாதீங்க, நாங்க உங்களுக்கு help பண்றோம். எல்லாம் சரியாகும்."

const (
	apologyTamil   = "மன்னிக்கவும், எனக்கு இப்போது பதில் சொல்ல முடியவில்லை. மீண்டும் முயற்சி செய்யுங்கள்."
	apologyEnglish = "Sorry, I'm having trouble responding right now. Please try again."
)

// Apology is the recoverable fallback reply used when generation fails.
func Apology(language string) string {
	if language == "ta" || strings.Contains(strings.ToLower(language), "tamil") {
		return apologyTamil
	}
	return apologyEnglish
}

// buildPrompt renders the system prompt, the recent history window and the
// latest user message into a single generation prompt.
func buildPrompt(history []Message, userMessage string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	window := history
	if len(window) > promptWindow {
		window = window[len(window)-promptWindow:]
	}
	for _, m := range window {
		if m.Role == RoleUser {
			b.WriteString("Human: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Human: ")
	b.WriteString(userMessage)
	b.WriteString("\nAssistant:")
	return b.String()
}

// buildSummaryPrompt renders the senior-doctor handover request from the
// patient's side of the history.
func buildSummaryPrompt(patientMessages []string) string {
	return `Based on this conversation with a patient, create a brief medical summary for the senior doctor:

Patient conversation:
` + strings.Join(patientMessages, " | ") + `

Create a summary in this format:
- Chief complaint: [main symptoms/concerns]
- Duration: [when symptoms started]
- Severity: [mild/moderate/severe if mentioned]
- Associated symptoms: [other symptoms mentioned]
- Patient concerns: [any worries expressed]
- Recommended action: [urgent/routine consultation]

Keep it professional and concise.`
}
