package llm

import (
	"context"

	"go.uber.org/zap"
)

// emptyResult is what callers receive when every fallback backend fails: the
// tolerant parsers upstream turn it into "no proposals found".
const emptyResult = "[]"

// Chain tries each backend in priority order and returns the first success.
// When all backends fail it returns an empty JSON array rather than an error:
// the degraded path is deliberately best-effort.
type Chain struct {
	Backends []Generator
	Log      *zap.Logger
}

func NewChain(log *zap.Logger, backends ...Generator) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{Backends: backends, Log: log}
}

func (c *Chain) Generate(ctx context.Context, system, prompt string) (string, error) {
	for _, b := range c.Backends {
		if b == nil {
			continue
		}
		out, err := b.Generate(ctx, system, prompt)
		if err == nil {
			return out, nil
		}
		c.Log.Warn("generation backend failed, trying next", zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	c.Log.Warn("no generation backend succeeded; returning empty result")
	return emptyResult, nil
}
