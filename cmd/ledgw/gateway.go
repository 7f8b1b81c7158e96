package main

import (
	httpadapter "led-gateway/internal/adapters/input/http"
	"led-gateway/internal/domain/model"
	"led-gateway/internal/metrics"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newGatewayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Forward requests to the device API, stripping the route prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings.Gateway
			cfg, err := model.NewGatewayConfig(s.UpstreamURL, s.Prefix, s.ForwardHopHeaders)
			if err != nil {
				return err
			}

			reg := newRegistry()
			client := httpadapter.NewUpstreamClient(s.DialTimeout, s.ResponseHeaderTimeout)
			gw := httpadapter.NewGateway(cfg, client, a.logger, metrics.NewGateway(reg))

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a.logger.Info("Gateway starting",
				"listen", s.ListenAddr,
				"upstream", cfg.Upstream.String(),
				"prefix", cfg.Prefix,
				"forward_hop_headers", cfg.ForwardHopHeaders,
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return httpadapter.Serve(ctx, s.ListenAddr, gw, a.logger)
			})
			if s.AdminAddr != "" {
				g.Go(func() error {
					return httpadapter.Serve(ctx, s.AdminAddr, httpadapter.AdminHandler(reg), a.logger)
				})
			}
			return g.Wait()
		},
	}

	f := cmd.Flags()
	f.String("listen", "", "gateway listen address (GATEWAY_LISTEN_ADDR)")
	f.String("admin", "", "health and metrics listen address, empty to disable (GATEWAY_ADMIN_ADDR)")
	f.String("upstream", "", "device API origin (GATEWAY_UPSTREAM_URL)")
	f.String("prefix", "", "route prefix to strip (GATEWAY_PREFIX)")
	f.Bool("forward-hop-headers", false, "relay hop-by-hop headers (GATEWAY_FORWARD_HOP_HEADERS)")
	return cmd
}
