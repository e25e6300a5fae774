// fiscalctl обслуживание локального фискального сервиса киоска такси
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"taxifiscal/internal/config"
	"taxifiscal/internal/infrastructure/logger"
	"taxifiscal/internal/service/cashdesk"
	"taxifiscal/internal/storage"
	"taxifiscal/pkg/fiscal"
)

// app общее окружение команд, заполняется в PersistentPreRunE
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	nodes  *storage.NodesStore
	client fiscal.Client

	envFile  string
	nodeName string
	asJSON   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fiscalctl",
		Short:         "Fiscal service control for taxi kiosks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "path to .env file")
	root.PersistentFlags().StringVar(&a.nodeName, "node", "", "saved fiscal node profile to use")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newStateCmd(a),
		newShiftCmd(a),
		newReceiptCmd(a),
		newVoidCmd(a),
		newPrintCmd(a),
		newPayCmd(a),
		newKeepCmd(a),
		newEmulateCmd(a),
		newNodesCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.Configure(logger.Config{Level: cfg.LogLevel, Console: cfg.LogConsole, Service: "fiscalctl"})
	a.log = logger.WithComponent("cli")
	a.nodes = storage.NewNodesStore(cfg.ProfilesPath, logger.Base())
	if err := a.nodes.Load(); err != nil {
		return err
	}

	fc := cfg.FiscalConfig()
	if a.nodeName != "" {
		node, err := a.nodes.Find(a.nodeName)
		if err != nil {
			return err
		}
		if node.Host != "" {
			fc.Host = node.Host
		}
		fc.Port = node.Port
		fc.RegistrationNumber = node.RegistrationNumber
		a.log.Debug().Str("node", node.Name).Msg("using saved node")
	}
	clientLog := logger.Base()
	fc.Logger = &clientLog
	a.client = fiscal.NewClient(fc)
	return nil
}

// touchNode отмечает использование профиля после успешной команды
func (a *app) touchNode() {
	if a.nodeName == "" {
		return
	}
	if err := a.nodes.Touch(a.nodeName); err != nil {
		a.log.Warn().Err(err).Msg("failed to update node profile")
	}
}

// desk фасад с учётом FISCAL_ENABLED. Команды прямого обслуживания
// (state, shift) работают с клиентом напрямую и флаг не проверяют.
func (a *app) desk() *cashdesk.Service {
	return cashdesk.NewService(a.client, cashdesk.Options{
		Enabled:     a.cfg.Enabled,
		RasterWidth: rasterWidth(a.cfg.PaperWidth),
		Logger:      logger.Base(),
	})
}

func rasterWidth(columns int) int {
	if columns > fiscal.DefaultPaperWidth {
		return fiscal.Dots80mm
	}
	return fiscal.Dots58mm
}
