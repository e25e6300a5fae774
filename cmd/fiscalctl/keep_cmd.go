package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taxifiscal/internal/infrastructure/logger"
	"taxifiscal/internal/service/shiftkeeper"
	"taxifiscal/pkg/fiscal"
)

func newKeepCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "keep",
		Short: "Keep the shift open in the background and expose /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, ok := fiscal.Shift(a.client)
			if !ok {
				return fmt.Errorf("client has no shift controller")
			}
			if metricsAddr == "" {
				metricsAddr = a.cfg.MetricsAddr
			}

			keeper := shiftkeeper.NewService(ctrl, shiftkeeper.Config{
				Interval: a.cfg.ShiftInterval,
				Logger:   logger.Base(),
			})
			keeper.SetUpdateCallback(func(st shiftkeeper.Status) {
				ev := a.log.Info()
				if st.LastError != nil {
					ev = a.log.Warn().Err(st.LastError)
				}
				ev.Int("shift", st.ShiftNumber).Bool("open", st.ShiftOpen).Bool("expired", st.Expired).Msg("shift state changed")
			})

			g, ctx := errgroup.WithContext(cmd.Context())
			keeper.Start(ctx)
			defer keeper.Stop()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: keeperRouter(keeper)}
				serveUntilDone(ctx, g, srv, logger.WithComponent("metrics"))
			} else {
				g.Go(func() error {
					<-ctx.Done()
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for /metrics and /status (default METRICS_ADDR)")
	return cmd
}

type keeperStatus struct {
	ShiftOpen   bool   `json:"shiftOpen"`
	Expired     bool   `json:"expired"`
	ShiftNumber int    `json:"shiftNumber"`
	LastCheck   string `json:"lastCheck,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

func keeperRouter(k *shiftkeeper.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		st := k.CurrentStatus()
		out := keeperStatus{ShiftOpen: st.ShiftOpen, Expired: st.Expired, ShiftNumber: st.ShiftNumber}
		if !st.LastCheck.IsZero() {
			out.LastCheck = st.LastCheck.Format("2006-01-02T15:04:05Z07:00")
		}
		if st.LastError != nil {
			out.LastError = st.LastError.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	r.Post("/check", func(w http.ResponseWriter, r *http.Request) {
		st := k.CheckNow(r.Context())
		if st.LastError != nil {
			http.Error(w, st.LastError.Error(), http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}
