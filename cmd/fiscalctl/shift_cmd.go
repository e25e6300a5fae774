package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShiftCmd(a *app) *cobra.Command {
	var cashier string

	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Open, close or ensure the fiscal shift",
	}
	cmd.PersistentFlags().StringVar(&cashier, "cashier", "", "cashier name (default FISCAL_CASHIER)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "open",
			Short: "Open the shift (no-op if already open)",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.client.OpenDay(cmd.Context(), cashier); err != nil {
					return err
				}
				a.touchNode()
				fmt.Println("Смена открыта")
				return nil
			},
		},
		&cobra.Command{
			Use:   "close",
			Short: "Close the shift",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.client.CloseDay(cmd.Context(), cashier); err != nil {
					return err
				}
				a.touchNode()
				fmt.Println("Смена закрыта")
				return nil
			},
		},
		&cobra.Command{
			Use:   "ensure",
			Short: "Open a closed shift or reopen an expired one",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.client.EnsureShift(cmd.Context(), nil); err != nil {
					return err
				}
				st, err := a.client.GetState(cmd.Context())
				if err != nil {
					return err
				}
				a.touchNode()
				return a.printResult("Смена", st, fmt.Sprintf("Смена №%d открыта", st.ShiftNumber))
			},
		},
	)
	return cmd
}
