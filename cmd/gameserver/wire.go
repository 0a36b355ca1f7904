//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/skillcast/internal/config"
)

func initializeApp(ctx context.Context, cfg config.Config) (*app, func(), error) {
	wire.Build(
		providerSet,
		wire.Struct(new(app), "logger", "defs", "lifecycle"),
	)
	return nil, nil, nil
}
