package coach

import (
	"context"
	"encoding/json"

	"github.com/saboten-q/balanceai-wellness/internal/wellness"
)

//go:generate mockgen -source=gateway.go -destination=gateway_mocks_test.go -package=coach

// StreamEvent is one fragment of a streamed chat reply. When Err is set
// the stream is over and no further events follow.
type StreamEvent struct {
	Text string
	Err  error
}

// Gateway talks to the generative AI backend. All calls honor ctx
// cancellation and deadlines.
type Gateway interface {
	// GenerateStructured sends the prompt together with a response schema and
	// returns the raw JSON the model produced.
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error)

	// GenerateText sends the prompt and returns the plain text reply.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// AnalyzeImage sends an optional inline JPEG image together with the
	// prompt and a response schema.
	AnalyzeImage(ctx context.Context, prompt, imageBase64 string, schema *Schema) (json.RawMessage, error)

	// StreamChat opens a streaming chat completion. The returned channel is
	// closed by the producer once the reply is complete or an error event
	// was sent.
	StreamChat(ctx context.Context, systemPrompt string, history []wellness.ChatMessage, message string) (<-chan StreamEvent, error)
}
