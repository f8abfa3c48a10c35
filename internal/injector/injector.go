//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/zeusync/crdt/internal/config"
	"github.com/zeusync/crdt/internal/core/shared"
)

func InitializeDoc(cfg *config.Config) (*shared.Doc, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
