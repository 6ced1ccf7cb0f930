package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cameronsjo/keel/internal/build"
	"github.com/cameronsjo/keel/internal/config"
	"github.com/cameronsjo/keel/internal/manifest"
	"github.com/cameronsjo/keel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the application's HTTP server",
	Long: `Run the HTTP server of a keel application.

The server answers /greeting and /metrics. With the health capability it
also serves /health, /health/live and /health/ready, reporting UP or DOWN
as JSON. Capabilities come from keel.yml when one is found.

Examples:
  keel serve                      # Listen on :8080
  keel serve --port 9090          # Listen on another port
  keel serve --with health        # Serve health endpoints
  keel serve --log-file keel.log  # Also log to a file`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveWith    []string
	serveLogFile string
)

func init() {
	serveCmd.Flags().StringSliceVar(&serveWith, "with", nil, "Install an extra capability (repeatable)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Also write logs to this file")
	serveCmd.Flags().Int("port", manifest.DefaultHTTPPort, "Port to listen on")
	mustBindPFlag(config.KeyHTTPPort, serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	srvCfg, err := serverConfig(portOverridden(cmd))
	if err != nil {
		return err
	}

	logger, err := server.NewLogger(serveLogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting keel", zap.String("version", version), zap.Int("port", srvCfg.Port))

	return server.New(srvCfg, logger).Run(commandContext(cmd.Context()))
}

// portOverridden reports whether --port or KEEL_HTTP_PORT was given.
func portOverridden(cmd *cobra.Command) bool {
	_, env := os.LookupEnv(config.EnvPrefix + "_" + strings.ToUpper(config.KeyHTTPPort))
	return env || cmd.Flags().Changed("port")
}

// serverConfig resolves the port and capabilities. Inside a project the
// descriptor's httpPort applies unless overridden, so the server listens
// where the generated probes point. Outside a project only kubernetes and
// the --with capabilities are installed.
func serverConfig(overridden bool) (server.Config, error) {
	d := &manifest.Descriptor{}
	port := v.GetInt(config.KeyHTTPPort)

	cfg, err := config.Load(v)
	switch {
	case err == nil:
		d, err = manifest.LoadDescriptor(cfg.DescriptorPath, nil)
		if err != nil {
			return server.Config{}, err
		}
		port = cfg.HTTPPort
		if !overridden {
			port = d.Port()
		}
	case !errors.Is(err, config.ErrRootNotFound):
		return server.Config{}, err
	}

	caps, err := build.Capabilities(d, serveWith)
	if err != nil {
		return server.Config{}, err
	}

	return server.Config{Port: port, Capabilities: caps}, nil
}
