package injector

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/wire"
	"github.com/zeusync/crdt/internal/config"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/core/shared"
)

var ProviderSet = wire.NewSet(ProvideLogger, ProvideDoc)

func ProvideLogger(cfg *config.Config) log.Log {
	return log.New(cfg.Level()).Named("crdt")
}

// ProvideDoc creates the replica's document and declares its configured
// roots so they exist before the first transaction.
func ProvideDoc(cfg *config.Config, logger log.Log) (*shared.Doc, error) {
	doc := shared.NewDoc(
		shared.WithClientID(cfg.ResolvedClientID()),
		shared.WithGUID(cfg.ResolvedGUID()),
		shared.WithLogger(logger),
	)
	for _, name := range slices.Sorted(maps.Keys(cfg.Roots)) {
		var err error
		switch cfg.Roots[name] {
		case config.RootArray:
			_, err = doc.GetArray(name)
		case config.RootMap:
			_, err = doc.GetMap(name)
		default:
			err = fmt.Errorf("%w: root %q has kind %q", config.ErrInvalidConfig, name, cfg.Roots[name])
		}
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("document ready", log.Int("roots", len(cfg.Roots)))
	return doc, nil
}
