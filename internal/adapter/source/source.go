package source

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/adapter/source/remote"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/store"
)

// NewSource returns the listing backend selected by cfg.Source.
// The local store always holds accounts; listings come from it too unless a
// remote listing server is configured.
func NewSource(cfg *adapter.Config, local *store.Store, logger *slog.Logger) (domain.ListingSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	switch cfg.Source.Type {
	case adapter.SourceTypeLocal, "":
		if local == nil {
			return nil, fmt.Errorf("local source requires an open store")
		}
		return local, nil

	case adapter.SourceTypeRemote:
		if cfg.Source.URL == "" {
			return nil, fmt.Errorf("listing server URL is required")
		}
		return remote.NewClient(cfg.Source.URL, logger), nil

	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Source.Type)
	}
}
