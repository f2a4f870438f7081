package domain

// Prompt is a single request to a language model.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is a model answer together with the provider that produced it.
type Completion struct {
	Text     string
	Provider string
}
