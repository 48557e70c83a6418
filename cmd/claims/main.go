package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/coverbase/claims/internal/clock"
	"github.com/coverbase/claims/internal/config"
	"github.com/coverbase/claims/internal/migration"
	"github.com/coverbase/claims/internal/observability"
	"github.com/coverbase/claims/internal/server"
	"github.com/coverbase/claims/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
