package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/franklwy/NBA-Legend-Simulator/internal/ai"
	"github.com/franklwy/NBA-Legend-Simulator/internal/ai/ollama"
	"github.com/franklwy/NBA-Legend-Simulator/internal/ai/openai"
	"github.com/franklwy/NBA-Legend-Simulator/internal/battle"
	"github.com/franklwy/NBA-Legend-Simulator/internal/catalog"
	"github.com/franklwy/NBA-Legend-Simulator/internal/config"
	"github.com/franklwy/NBA-Legend-Simulator/internal/game"
	"github.com/franklwy/NBA-Legend-Simulator/internal/httpapi"
	"github.com/franklwy/NBA-Legend-Simulator/internal/ws"
	staticserver "github.com/franklwy/NBA-Legend-Simulator/static"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
		configFlag  = flag.String("config", "", "Path to a TOML config file (overrides CONFIG_FILE env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`NBA Legend Simulator - two-player fantasy draft with AI-simulated Finals

Usage: %s [options]

Options:
  -h, --help        Show this help message
  -v, --version     Show version information
  --port PORT       Port to listen on (default: 5000 or PORT env var)
  --config FILE     TOML config file (default: CONFIG_FILE env var)

Environment Variables (a .env file in the working directory is loaded first):
  PORT                Port to listen on (default: 5000)
  LOG_LEVEL           debug, info, warn or error (default: info)
  DEFAULT_PROVIDER    AI provider: "deepseek" or "ollama" (default: deepseek)
  DEFAULT_MODEL       Model for the deepseek provider (default: deepseek-reasoner)
  DEEPSEEK_API_KEY    DeepSeek API key (required for the deepseek provider)
  DEEPSEEK_BASE_URL   OpenAI-compatible base URL (default: https://api.deepseek.com)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  OLLAMA_MODEL        Model for the ollama provider (default: qwen3)
  MODEL_TIMEOUT       Per-request model timeout (default: 300s)
  MODEL_MAX_RETRIES   Retries before the first streamed token (default: 3)
  MODEL_RATE_PER_SEC  Outgoing model requests per second, 0 = unlimited (default: 2)
  STARTING_BUDGET     Draft budget per seat (default: 11)
  CATALOG_DB          SQLite player catalog (default: ./data/players.db)
  CATALOG_SEED        JSON file used to seed an empty catalog (default: ./data/players.json)
  STATIC_DIR          Front-end directory (default: ./public)
  EXPORT_ENABLED      Append battle results to a file (default: false)
  EXPORT_FILE         Path for exported results (default: ./nba-legend-results.txt)

Examples:
  %s                      Start server with default settings
  %s --port 3000          Start server on port 3000
  %s --config nba.toml    Start server with a config file

Visit http://localhost:5000 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("NBA Legend Simulator %s\n", version)
		return
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(cw)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Model provider
	var provider ai.Provider
	switch cfg.DefaultProvider {
	case config.ProviderOllama:
		provider = ollama.New(cfg.OllamaHost, cfg.ModelTimeout)
	default:
		if cfg.DeepSeekKey == "" {
			log.Warn().Msg("DEEPSEEK_API_KEY is not set, battles will fail until it is")
		}
		provider = openai.New(cfg.DeepSeekKey, cfg.DeepSeekBaseURL, openai.Options{
			Timeout:    cfg.ModelTimeout,
			MaxRetries: cfg.ModelMaxRetries,
			RatePerSec: cfg.ModelRatePerSec,
		})
	}
	runner := battle.NewRunner(provider, cfg.Model())
	log.Info().Str("provider", cfg.DefaultProvider).Str("model", runner.Model()).Msg("battle simulator ready")

	// Player catalog (optional: the draft works without it)
	var players httpapi.Catalog
	store, err := catalog.Open(cfg.CatalogDB)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.CatalogDB).Msg("player catalog unavailable")
	} else {
		defer store.Close()
		n, err := store.Seed(context.Background(), cfg.CatalogSeed)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.CatalogSeed).Msg("seed player catalog")
		} else if n > 0 {
			log.Info().Int("players", n).Msg("seeded player catalog")
		}
		players = store
	}

	// Rooms + socket server
	opts := game.Options{StartingBudget: cfg.StartingBudget}
	if cfg.ExportEnabled {
		opts.ExportFile = cfg.ExportFile
	}
	games := game.NewManager(game.NewMemoryStore(), runner, opts)
	sock := ws.New(games)
	io := sock.Mount(r)
	defer io.Close()

	httpapi.New(runner, players, games).Register(r)

	// Serve the front end for all other routes
	static := staticserver.Handler(cfg.StaticDir)
	r.NoRoute(func(c *gin.Context) {
		static.ServeHTTP(c.Writer, c.Request)
	})

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
