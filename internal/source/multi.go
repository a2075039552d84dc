package source

import (
	"context"
	"fmt"
	"log/slog"

	"PackCurator/internal/config"
	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

// Multi implements PackSource by executing every configured catalog
// strategy and aggregating the results. A failing catalog is logged and
// skipped so one broken upstream cannot empty the whole search.
type Multi struct {
	registry *Registry
	catalogs []config.CatalogConfig
	logger   *slog.Logger
}

var _ ports.PackSource = (*Multi)(nil)

// NewMulti wires the strategy registry with config-defined catalogs.
func NewMulti(reg *Registry, catalogs []config.CatalogConfig, log *slog.Logger) *Multi {
	return &Multi{
		registry: reg,
		catalogs: catalogs,
		logger:   log,
	}
}

// Search iterates over configured catalogs and executes their strategies.
func (m *Multi) Search(ctx context.Context) ([]domain.Pack, error) {
	if m.registry == nil {
		return nil, fmt.Errorf("catalog registry is not configured")
	}

	var aggregated []domain.Pack
	for _, cat := range m.catalogs {
		strategy, err := m.registry.Resolve(cat.Strategy)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", cat.Name, err)
		}

		req := Request{
			CatalogName: cat.Name,
			Limit:       cat.Limit,
			Options:     cat.Options,
		}

		results, err := strategy.Search(ctx, req)
		if err != nil {
			m.warn("catalog search failed", "catalog", cat.Name, "error", err)
			continue
		}

		m.debug("catalog produced packs", "catalog", cat.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	m.debug("search done", "total_packs", len(aggregated))
	return aggregated, nil
}

func (m *Multi) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

func (m *Multi) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
