package main

import (
	"context"
	"led-gateway/internal/config"
	"led-gateway/internal/logging"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type app struct {
	settings *config.Settings
	logger   *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "ledgw",
		Short:        "LED controller gateway, device API and client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings()
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.settings = cfg
			a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(a.logger)
			a.logger.Debug("Logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-format", "", "log format (text or json)")

	root.AddCommand(
		newGatewayCmd(a),
		newDeviceCmd(a),
		newLEDsCmd(a),
		newHealthCmd(a),
	)
	return root
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(fs *pflag.FlagSet, cfg *config.Settings) {
	overrideString(fs, "log-level", &cfg.LogLevel)
	overrideString(fs, "log-format", &cfg.LogFormat)

	overrideString(fs, "listen", &cfg.Gateway.ListenAddr)
	overrideString(fs, "admin", &cfg.Gateway.AdminAddr)
	overrideString(fs, "upstream", &cfg.Gateway.UpstreamURL)
	overrideString(fs, "prefix", &cfg.Gateway.Prefix)
	if fs.Changed("forward-hop-headers") {
		cfg.Gateway.ForwardHopHeaders, _ = fs.GetBool("forward-hop-headers")
	}

	overrideString(fs, "device-listen", &cfg.Device.ListenAddr)
	overrideString(fs, "layout", &cfg.Device.LayoutFile)
	overrideString(fs, "actuator", &cfg.Device.Actuator)

	overrideString(fs, "base-url", &cfg.LEDAPI.BaseURL)
	if fs.Changed("timeout") {
		cfg.LEDAPI.Timeout, _ = fs.GetDuration("timeout")
	}
}

func overrideString(fs *pflag.FlagSet, name string, dst *string) {
	if fs.Lookup(name) == nil || !fs.Changed(name) {
		return
	}
	v, err := fs.GetString(name)
	if err == nil {
		*dst = v
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
