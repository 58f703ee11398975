package main

import (
	"github.com/atlas-cmdb/backend/internal/server"
	"github.com/atlas-cmdb/backend/internal/util"
	"github.com/atlas-cmdb/backend/pkg/logger"
	"github.com/atlas-cmdb/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
