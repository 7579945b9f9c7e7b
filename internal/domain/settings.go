package domain

// ProviderKind selects which LLM backend dispatches a request.
type ProviderKind string

const (
	// ProviderGemini is the schema backend: native structured output via
	// a response schema on the generateContent API.
	ProviderGemini ProviderKind = "gemini"
	// ProviderCompatible is any OpenAI-compatible chat-completions
	// endpoint, relying on prompt instructions for JSON output.
	ProviderCompatible ProviderKind = "compatible"
)

// Settings holds the user-editable configuration: provider choice,
// credentials, model name and interaction preference. Mutated only through
// the settings update operation and persisted on every change. Credential
// fields are read by the matching provider's dispatch path and ignored by
// the other.
type Settings struct {
	Provider      ProviderKind `json:"provider"`
	GeminiKey     string       `json:"geminiKey"`
	CompatKey     string       `json:"compatKey"`
	CompatBaseURL string       `json:"compatBaseUrl"`
	ModelName     string       `json:"modelName"`
	UseCmdEnter   bool         `json:"useCmdEnter"`
}
