package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "POS terminal payments",
	}

	var amount float64
	var paymentType string
	execute := &cobra.Command{
		Use:   "execute",
		Short: "Charge the card terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.desk().ExecutePayment(cmd.Context(), amount, paymentType)
			if err != nil {
				return err
			}
			return a.printResult("Оплата", res, fmt.Sprintf("%s, id %s %s", res.Status, res.ID, res.Reason))
		},
	}
	execute.Flags().Float64Var(&amount, "amount", 0, "amount to charge")
	execute.Flags().StringVar(&paymentType, "type", "card", "payment type")
	_ = execute.MarkFlagRequired("amount")

	cancel := &cobra.Command{
		Use:   "cancel <payment-id>",
		Short: "Mark a payment as cancelled (refund on the terminal manually)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.desk().CancelPayment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printResult("Отмена оплаты", res, fmt.Sprintf("%s: %s", res.Status, res.Result))
		},
	}

	cmd.AddCommand(execute, cancel)
	return cmd
}
