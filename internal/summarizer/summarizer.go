package summarizer

import (
	"context"
)

// Transformer turns text into a derived text following instruction.
type Transformer interface {
	Transform(ctx context.Context, instruction string, text string) (string, error)
}
