package analysis

import "context"

// Oracle port: the remote text-completion service. Implementations are
// responsible for transport reliability (timeout, bounded retry) and
// must classify failures with the sentinel errors in errors.go. The
// returned text is raw; nothing about its structure is assumed here.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Renderer port: turns validated risk scores into an image artifact.
// Scores arrive already clamped to [0,1].
type Renderer interface {
	Render(ctx context.Context, subjectID string, risks map[string]float64) (*Artifact, error)
}
