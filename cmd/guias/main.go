// Command guias runs the scan desk backend: the HTTP API, manifest rendering
// from the command line and bulk imports of scanner exports.
//
//	@title			Guías Scan Desk API
//	@version		1.0
//	@description	Records scanned shipping labels per working date, classifies them by carrier and renders signed carrier manifests.
//	@BasePath		/api
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-guias-backend/internal/config"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = ""

func appVersion() string {
	return sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
}

// app carries what every subcommand shares once configuration is loaded.
type app struct {
	envFiles []string
	cfg      config.Config
	log      zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "guias",
		Short: "Scan desk backend for shipping labels",
		Long: `guias records the shipping labels scanned at a dispatch desk, grouped by
working date and carrier, and renders the carrier manifests signed at pickup.

Configuration comes from the environment (and .env files, see --env-file).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files loaded before reading configuration (default .env)")

	root.AddCommand(
		a.serveCmd(),
		a.manifestCmd(),
		a.importCmd(),
		versionCmd(),
	)
	return root
}

// setup loads env files and configuration and installs the global logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := sysutil.LoadDotenv(a.envFiles...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	sysutil.SetLogLevel(cfg.LogLevel)
	a.log = sysutil.NewLogger(cmd.ErrOrStderr(), cfg.LogPretty, cfg.OTEL.ServiceName)
	log.Logger = a.log
	cmd.SetContext(a.log.WithContext(cmd.Context()))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appVersion())
		},
	}
}

// parseDate reads a --date flag. Empty yields the zero time, which the
// service reads as today.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return domain.ParseDay(raw)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
