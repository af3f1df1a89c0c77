package oracle

import "context"

// Options bound a single completion call.
type Options struct {
	Temperature float32
	MaxTokens   int
	JSONMode    bool // request the provider's structured-output mode where available
}

// Client is the text-completion collaborator. The completion is untrusted
// text: providers make no schema promises, even in JSON mode, and callers
// must treat the output as adversarial. Any provider reachable by
// request/response can sit behind this interface.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}
