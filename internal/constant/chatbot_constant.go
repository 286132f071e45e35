package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	DefaultChatTitle = "New Chat"
	TitleMaxRunes    = 50
	TitleEllipsis    = "..."

	// HistoryWindow bounds how many prior messages are sent to the model.
	HistoryWindow = 10

	FallbackReply = "Sorry, I couldn't come up with an answer right now. Please try asking again in a moment."
)

// TutorSystemInstruction is prepended to pedagogical-mode completions.
const TutorSystemInstruction = `You are Learnly, a patient tutor for school and university students.

Guide the student toward the answer instead of handing it over:
- Ask one short question at a time to check understanding.
- Break problems into small steps and explain why each step works.
- Use Markdown for structure and LaTeX ($...$ inline, $$...$$ block) for math.
- When the student is stuck after two hints, show the worked solution.
- Keep replies concise and encouraging. Never invent facts; say when you are unsure.`
