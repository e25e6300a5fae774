package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taxifiscal/pkg/fiscal"
)

func newReceiptCmd(a *app) *cobra.Command {
	var (
		data    fiscal.TaxiReceiptData
		method  string
		printIt bool
	)

	cmd := &cobra.Command{
		Use:   "receipt",
		Short: "Register a taxi ride receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			data.PaymentMethod = fiscal.PaymentMethod(strings.ToUpper(method))
			if data.Price <= 0 {
				return errors.New("--price must be positive")
			}

			desk := a.desk()
			out, err := desk.CreateTaxiReceipt(cmd.Context(), data)
			if err != nil {
				if errors.Is(err, fiscal.ErrOutcomeUnknown) {
					a.log.Error().Err(err).Msg("receipt outcome unknown, verify with 'fiscalctl state'")
				}
				return err
			}
			a.touchNode()

			lines := []string{fmt.Sprintf("Заказ %s: %.2f (%s)", data.OrderNumber, fiscal.RoundMoney(data.Price), data.PaymentMethod)}
			switch {
			case out.Skipped:
				lines = append(lines, "Фискализация выключена (FISCAL_ENABLED=false)")
			case out.PrintFailed:
				lines = append(lines, "Чек пробит, но не напечатан: "+out.Error.Error())
			default:
				lines = append(lines, fmt.Sprintf("Документ №%d, ФП %s, смена №%d",
					out.Receipt.DocumentNumber, out.Receipt.FiscalSign, out.Receipt.ShiftNumber))
			}

			if printIt && !out.Skipped {
				if err := desk.PrintReceiptLines(cmd.Context(), data, nil); err != nil {
					a.log.Warn().Err(err).Msg("ride slip not printed")
				}
			}
			return a.printResult("Чек", out, lines...)
		},
	}

	f := cmd.Flags()
	f.StringVar(&data.OrderNumber, "order", "", "order number")
	f.Float64Var(&data.Price, "price", 0, "ride price")
	f.StringVar(&method, "method", string(fiscal.PaymentCard), "payment method: CASH, CARD or QR")
	f.StringVar(&data.From, "from", "", "pickup address")
	f.StringVar(&data.To, "to", "", "destination address")
	f.StringVar(&data.CarNumber, "car", "", "car plate")
	f.StringVar(&data.CarModel, "car-model", "", "car model")
	f.StringVar(&data.DriverName, "driver", "", "driver name")
	f.StringVar(&data.QueueNumber, "queue", "", "queue number")
	f.StringVar(&data.CashierName, "cashier", "", "cashier name")
	f.BoolVar(&printIt, "print", false, "print the ride slip after the receipt")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newVoidCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "void",
		Short: "Void the last receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.desk().VoidLastReceipt(cmd.Context()); err != nil {
				return err
			}
			a.touchNode()
			fmt.Println("Последний чек аннулирован")
			return nil
		},
	}
}
