package styler

import (
	"context"
	"log/slog"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

// Pipeline is the two-stage renderer: a primary (usually LLM-backed)
// styler whose failures are logged, then the template renderer, which is
// guaranteed to produce something.
type Pipeline struct {
	primary  ports.Styler
	fallback Template
	logger   *slog.Logger
}

var _ ports.Styler = (*Pipeline)(nil)

// NewPipeline builds the pipeline; primary may be nil when no LLM is
// configured, in which case every render goes through the template.
func NewPipeline(primary ports.Styler, logger *slog.Logger) *Pipeline {
	return &Pipeline{primary: primary, logger: logger}
}

// Render tries the primary styler and falls back on any failure. The
// returned error is always nil; the signature satisfies ports.Styler.
func (p *Pipeline) Render(ctx context.Context, pack domain.Pack) (string, error) {
	if p.primary != nil {
		text, err := p.primary.Render(ctx, pack)
		if err == nil {
			return text, nil
		}
		if p.logger != nil {
			p.logger.Warn("primary styler failed, using template", "pack", pack.UID(), "error", err)
		}
	}

	return p.fallback.Render(ctx, pack)
}
