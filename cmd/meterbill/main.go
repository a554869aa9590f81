package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gridsmith/meterbill/internal/clock"
	"github.com/gridsmith/meterbill/internal/config"
	"github.com/gridsmith/meterbill/internal/migration"
	"github.com/gridsmith/meterbill/internal/observability"
	"github.com/gridsmith/meterbill/internal/scheduler"
	"github.com/gridsmith/meterbill/internal/server"
	"github.com/gridsmith/meterbill/pkg/db"
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
		scheduler.Module,
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
