package config

import "time"

const (
	// MaxUserTurns caps user messages per conversation: the initial
	// complaint plus five follow-ups.
	MaxUserTurns = 6

	// MaxContextMessages bounds the conversation window sent to a
	// backend; the system prompt is prepended on top of this.
	MaxContextMessages = 10

	// MaxSavedSessions caps the saved-sessions collection; beyond it the
	// oldest entries are dropped silently.
	MaxSavedSessions = 50

	// SessionTitleLen is how much of the first message becomes the
	// session title when no parsed card title exists.
	SessionTitleLen = 15

	// RequestTimeout bounds a single backend dispatch.
	RequestTimeout = 20 * time.Second

	// KeyCooldownSec is reserved for future multi-key rotation.
	KeyCooldownSec = 60

	// Temperature for both backends: creative but bounded.
	Temperature = 0.7

	// Default model identifiers per backend.
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultCompatModel = "mimo-v2-flash"
)

// SystemPrompt is the fixed instruction sent with every dispatch.
const SystemPrompt = `你是“正能量大师”，只用中文回复。目标：帮助用户把烦恼拆解为可行动的计划，保持积极、清醒、不过度承诺，不说空话鸡汤。

核心原则：
1) 先共情再拆解：承认感受 -> 重新定义问题 -> 提炼闪光点 -> 给努力方向 -> 输出清晰可做的 3 步。
2) 不进行医疗/法律等高风险断言；若用户提到自伤/他伤倾向，用温和方式建议寻求专业帮助。
3) 严格按照 JSON Schema 格式输出。

Checklist 要求：
- 固定 3 条
- difficulty 只能是 S/M/L
- timebox 给出明确时间盒（如：10分钟/今天/本周）`

// JSONFormatInstruction is appended to the system prompt for backends
// without native schema enforcement, spelling out the expected shape.
const JSONFormatInstruction = `

请严格按照以下 JSON 格式输出：
{
  "title": "简短的标题",
  "reframe": "重新定义的视角（共情与重构）",
  "bright_spots": ["闪光点1", "闪光点2", "闪光点3"],
  "effort_directions": ["努力方向1", "努力方向2"],
  "checklist": [
    { "task": "任务内容", "why": "为什么做", "timebox": "耗时", "difficulty": "S/M/L" }
  ],
  "encouragement": "一句鼓励的话",
  "next_question": "下一步的探索问题"
}
请直接返回纯 JSON 格式，不要包含 ` + "```json" + ` 标记。`
