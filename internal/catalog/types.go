package catalog

// Tier classifies which access level a model requires.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// Known providers. The set is open; remote descriptors may name providers
// this build has never seen.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

// TypeText is currently the only model type the catalog serves.
const TypeText = "text"

// Capabilities describes what a model can do.
type Capabilities struct {
	WebSearchCapable bool `json:"webSearchCapable" yaml:"web_search_capable"`
	CodeExecution    bool `json:"codeExecution" yaml:"code_execution"`
	MaxTokens        int  `json:"maxTokens,omitempty" yaml:"max_tokens"`
	ContextWindow    int  `json:"contextWindow,omitempty" yaml:"context_window"`
	Multimodal       bool `json:"multimodal,omitempty" yaml:"multimodal"`
	FunctionCalling  bool `json:"functionCalling,omitempty" yaml:"function_calling"`
	Streaming        bool `json:"streaming,omitempty" yaml:"streaming"`
}

// ModelDescriptor is one entry of the model catalog. Name is the stable
// identifier; everything else is presentation and capability metadata.
type ModelDescriptor struct {
	Name         string       `json:"name" yaml:"name"`
	DisplayName  string       `json:"displayName" yaml:"display_name"`
	Provider     string       `json:"provider" yaml:"provider"`
	Type         string       `json:"type" yaml:"type"`
	Tier         Tier         `json:"tier" yaml:"tier"`
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
	Description  string       `json:"description,omitempty" yaml:"description"`
}

// ModelResponse is what catalog consumers (onboarding and settings surfaces)
// receive: the text-capable models currently available.
type ModelResponse struct {
	TextModels []ModelDescriptor `json:"text_models"`
}

// RemoteModel is the wire shape of one model descriptor as returned by the
// backend. Optional fields are pointers so the merge can tell "absent" from
// "explicitly false/zero" and keep local capability defaults otherwise.
type RemoteModel struct {
	Name         string              `json:"name"`
	DisplayName  string              `json:"displayName"`
	Provider     string              `json:"provider"`
	Type         string              `json:"type"`
	Tier         string              `json:"tier"`
	Capabilities *RemoteCapabilities `json:"capabilities"`
	Description  string              `json:"description"`
}

// RemoteCapabilities mirrors Capabilities with optional fields.
type RemoteCapabilities struct {
	WebSearchCapable *bool `json:"webSearchCapable"`
	CodeExecution    *bool `json:"codeExecution"`
	MaxTokens        *int  `json:"maxTokens"`
	ContextWindow    *int  `json:"contextWindow"`
	Multimodal       *bool `json:"multimodal"`
	FunctionCalling  *bool `json:"functionCalling"`
	Streaming        *bool `json:"streaming"`
}

// remoteResponse is the full payload of the model-listing endpoint.
type remoteResponse struct {
	TextModels []RemoteModel `json:"text_models"`
	TokensUsed int           `json:"tokensUsed"`
}
