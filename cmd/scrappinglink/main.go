// scrappinglink crawls tech news, turns it into LinkedIn posts and stores them.
//
// Usage:
//
//	scrappinglink run [--config=<path>]
//	scrappinglink schedule [--config=<path>]
//	scrappinglink images --query=<text> [--category=<name>] [--max=<n>]
//	scrappinglink scrape
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sromero1905/scrapping-link/internal/app"
	"github.com/sromero1905/scrapping-link/internal/config"
	"github.com/sromero1905/scrapping-link/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	profile    string
}

var rootCmd = &cobra.Command{
	Use:           "scrappinglink",
	Short:         "Daily tech news to LinkedIn posts pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "YAML config path (defaults to $CONTENT_PIPELINE_CONFIG)")
	f.StringVar(&rootFlags.profile, "profile", "", "production or testing; overrides the config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApp reads configuration and wires the application. validate is off for
// the inspection commands, which do not need an oracle credential.
func loadApp(ctx context.Context, validate bool) (*app.Application, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	if rootFlags.profile != "" {
		cfg.Profile = rootFlags.profile
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	logger := logging.New(cfg.Logging.Level)
	return app.New(ctx, cfg, logger)
}
