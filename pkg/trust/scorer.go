package trust

import "context"

// Scorer looks up the trust score for an identity. Plans gate admission on a
// minimum score; a score source is injected so admission logic stays unaware
// of where scores come from.
type Scorer interface {
	Score(ctx context.Context, address string) (int, error)
}

// StaticScorer returns the same score for every identity. It is a placeholder
// until a real scoring service is integrated.
type StaticScorer struct {
	Value int
}

func NewStaticScorer() StaticScorer {
	return StaticScorer{Value: 50}
}

func (s StaticScorer) Score(_ context.Context, _ string) (int, error) {
	return s.Value, nil
}
