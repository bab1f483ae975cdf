package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/auctionwatcher/config"
	"sjsage522/auctionwatcher/logger"
)

const usage = `Usage: auctionwatcher <command> [flags]

Commands:
  scrape    run one scrape pass and print the summary
  monitor   run the scheduler service and the status API
  check     check for urgent items now
  view      summarize the database
  watch     add, list or toggle watchlist keywords
  test      send a sample alert and probe the database
`

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.LogFile != "" {
		logFile, err := logger.AttachFile(cfg.LogFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.LogFile).Msg("File logging disabled")
		} else {
			defer logFile.Close()
			log = logger.Default
		}
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("command", command).
		Str("fetch_mode", cfg.FetchMode).
		Str("database", cfg.DatabaseDriver).
		Msg("Starting auction watcher")

	// Cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCommand(ctx, cfg, command, args); err != nil {
		if helpRequested(err) {
			return
		}
		log.Error().Err(err).Str("command", command).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

// helpRequested reports whether err, possibly wrapped, is a -h/-help request.
func helpRequested(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func runCommand(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "scrape":
		return runScrape(ctx, cfg, args)
	case "monitor":
		return runMonitor(ctx, cfg, args)
	case "check":
		return runCheck(ctx, cfg)
	case "view":
		return runView(ctx, cfg, args)
	case "watch":
		return runWatch(ctx, cfg, args)
	case "test":
		return runTest(ctx, cfg)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
