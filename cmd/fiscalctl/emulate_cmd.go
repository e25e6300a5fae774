package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taxifiscal/internal/emulator"
	"taxifiscal/internal/infrastructure/logger"
)

func newEmulateCmd(a *app) *cobra.Command {
	var (
		addr      string
		openedAgo time.Duration
		jam       bool
	)

	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "Serve an in-memory fiscal device for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
			}
			dev := emulator.New(
				emulator.WithRegistrationNumber(a.cfg.RegistrationNumber),
				emulator.WithLogger(logger.WithComponent("emulator")),
			)
			if openedAgo > 0 {
				dev.OpenShiftAt(time.Now().Add(-openedAgo))
			}
			dev.SetPrinterJam(jam)

			g, ctx := errgroup.WithContext(cmd.Context())
			srv := &http.Server{Addr: addr, Handler: dev.Router(), ReadHeaderTimeout: 10 * time.Second}
			serveUntilDone(ctx, g, srv, logger.WithComponent("emulator"))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default FISCAL_HOST:FISCAL_PORT)")
	cmd.Flags().DurationVar(&openedAgo, "shift-opened-ago", 0, "start with a shift opened this long ago (25h gives an expired shift)")
	cmd.Flags().BoolVar(&jam, "printer-jam", false, "simulate a printer jam")
	return cmd
}
