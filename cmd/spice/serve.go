package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-dashboard/internal/api"
	"github.com/Veraticus/spice-dashboard/internal/certs"
	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/config"
	"github.com/Veraticus/spice-dashboard/internal/engine"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API over HTTP",
		Long: `Serve reports, forecasts, budgets, limits, and goals as JSON.

Endpoints live under /api, for example:
  GET  /api/reports/monthly/2024/3
  GET  /api/forecast?until=2024-03-31
  POST /api/limits/check

With --tls the API is served over HTTPS using a self-signed localhost
certificate kept in server.cert_dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := viper.GetString("server.addr")
			useTLS, _ := cmd.Flags().GetBool("tls")
			handler := cli.NewInterruptHandler(cmd.OutOrStdout(), "Server")

			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				ctx = handler.HandleInterrupts(ctx)
				server := api.NewServer(e)

				if !useTLS {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Listening on http://"+addr))
					return server.ListenAndServe(ctx, addr)
				}

				certDir := config.PathSetting("server.cert_dir", config.DefaultCertDir)
				tlsConfig, err := certs.NewStore(certDir).TLSConfig()
				if err != nil {
					return fmt.Errorf("failed to prepare TLS certificate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Listening on https://"+addr))
				return server.ListenAndServeTLS(ctx, addr, tlsConfig)
			})
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
