// Command beans is a thin command-line edge over the ledger engine. It only
// ever opens a store, mutates or lists entries, and requests reports.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/beansapp/beans/internal/core/ports"
	"github.com/beansapp/beans/internal/core/services"
	"github.com/beansapp/beans/internal/platform/config"
	"github.com/beansapp/beans/internal/platform/logging"
	"github.com/beansapp/beans/internal/platform/rates"
	"github.com/google/subcommands"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var handler slog.Handler
	if cfg.IsProduction {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	app := &app{cfg: cfg}
	commander.Register(&addCmd{app: app}, "entries")
	commander.Register(&listCmd{app: app}, "entries")
	commander.Register(&updateCmd{app: app}, "entries")
	commander.Register(&deleteCmd{app: app}, "entries")
	commander.Register(&summaryCmd{app: app}, "reports")
	commander.Register(&reportCmd{app: app}, "reports")
	commander.Register(&tagsCmd{app: app}, "reports")

	flag.Parse()
	ctx := logging.WithLogger(context.Background(), logger)
	os.Exit(int(commander.Execute(ctx)))
}

// app carries the configuration and lazily-built collaborators shared by all
// commands.
type app struct {
	cfg *config.Config
}

// openLedger opens the store named by the -ledger flag, falling back to the
// configured default path.
func (a *app) openLedger(flagPath string) (*services.LedgerService, error) {
	path := flagPath
	if path == "" {
		path = a.cfg.LedgerPath
	}
	return services.OpenLedger(path)
}

// converter builds the currency converter over the configured rate source.
func (a *app) converter() ports.ConverterSvc {
	options := []rates.ClientOption{
		rates.WithBaseURL(a.cfg.RateAPIURL),
		rates.WithTimeout(a.cfg.RateTimeout),
	}
	if a.cfg.RateAPIFallbackURL != "" {
		options = append(options, rates.WithFallbackURL(a.cfg.RateAPIFallbackURL))
	}
	client := rates.NewClient(options...)
	return services.NewCurrencyConverter(client, services.WithRateTTL(a.cfg.RateTTL))
}
