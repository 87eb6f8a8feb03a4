package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/ersin/stackd/internal/adapters/builder"
	"github.com/ersin/stackd/internal/adapters/docker"
	"github.com/ersin/stackd/internal/adapters/http"
	"github.com/ersin/stackd/internal/config"
	"github.com/ersin/stackd/internal/logging"
	"github.com/ersin/stackd/internal/stack"
)

// controlConfig is the control plane's own environment. The secret lives here
// and is handed to containers at start; it never enters an image build.
type controlConfig struct {
	Database      config.DatabaseConfig
	SecretKey     string `env:"SECRET_KEY"`
	EntrypointBin string `env:"ENTRYPOINT_BIN,default=./bin/entrypoint"`
	ListenAddr    string `env:"LISTEN_ADDR,default=:3000"`
}

func main() {
	log := logging.New("stackd")

	_ = godotenv.Load()
	var cc controlConfig
	if err := envdecode.StrictDecode(&cc); err != nil {
		log.Fatal().Err(err).Msg("failed to decode environment")
	}

	// 1. Initialize adapters (infrastructure)
	dockerAdapter, err := docker.NewAdapter()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize docker adapter")
	}
	buildAdapter, err := builder.NewAdapter(config.DefaultBuild(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize builder adapter")
	}

	// 2. Wire the deployer and HTTP handlers
	deployer := stack.NewDeployer(dockerAdapter, buildAdapter, log,
		cc.Database, cc.SecretKey, cc.EntrypointBin)
	stackHandler := http.NewStackHandler(deployer)
	proxyHandler := http.NewProxyHandler(deployer)

	// 3. Setup framework (Fiber)
	app := fiber.New()

	// Subdomain traffic goes to the matching stack's edge container.
	app.Use(proxyHandler.ProxyRequest)

	// 4. Define routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	stacks := v1.Group("/stacks")
	stacks.Get("/", stackHandler.ListStacks)
	stacks.Post("/", stackHandler.DeployStack)
	stacks.Delete("/:name", stackHandler.TeardownStack)
	stacks.Get("/:name/compose", stackHandler.StackManifest)
	stacks.Get("/:name/logs/:service", stackHandler.ServiceLogs)

	// 5. Start server
	log.Info().Str("addr", cc.ListenAddr).Msg("server starting")
	if err := app.Listen(cc.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
