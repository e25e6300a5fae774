package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxifiscal/pkg/fiscal"
)

func newStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show device version, registration and shift state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ver, err := a.client.GetVersion(ctx)
			if err != nil {
				return err
			}
			reg, err := a.client.GetRegistrationStatus(ctx)
			if err != nil {
				return err
			}
			st, err := a.client.GetState(ctx)
			if err != nil {
				return err
			}
			a.touchNode()

			day := "закрыта"
			switch {
			case st.DayState == fiscal.DayOpen && st.IsShiftExpired:
				day = "открыта, превысила 24 часа"
			case st.DayState == fiscal.DayOpen:
				day = "открыта"
			}
			return a.printResult("Состояние ККТ", map[string]any{
				"version":      ver,
				"registration": reg,
				"state":        st,
			},
				fmt.Sprintf("Версия сервиса: %s", ver.Version),
				fmt.Sprintf("РН ККТ: %s (зарегистрирована: %v)", reg.RegistrationNumber, reg.Registered),
				fmt.Sprintf("Заводской номер: %s", st.SerialNumber),
				fmt.Sprintf("Смена №%d: %s (открыта %s)", st.ShiftNumber, day, st.ShiftDateTime),
				fmt.Sprintf("Документов: %d, чеков: %d", st.DocumentNumber, st.BillNumber),
				fmt.Sprintf("Время ККТ: %s", st.DateTime),
			)
		},
	}
}
