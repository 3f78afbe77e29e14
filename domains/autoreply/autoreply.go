package autoreply

import "context"

// Decision is what the external auto-reply collaborator returns for one
// inbound text. Confidence is in [0,1]; callers never act on a decision
// below their configured threshold and never send without ShouldReply.
type Decision struct {
	ShouldReply    bool    `json:"should_reply"`
	SuggestedReply string  `json:"suggested_reply,omitempty"`
	Confidence     float64 `json:"confidence"`
	Sentiment      string  `json:"sentiment,omitempty"`
}

// Decider is implemented by the hosted AI collaborator. The messaging core
// only consumes this interface; it never implements it.
type Decider interface {
	ShouldAutoReply(ctx context.Context, text string, history []string) (Decision, error)
}
