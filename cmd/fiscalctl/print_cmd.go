package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxifiscal/pkg/fiscal"
)

func newPrintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print text or images on the receipt printer",
	}

	var cut bool
	text := &cobra.Command{
		Use:   "text [lines...]",
		Short: "Print text lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, line := range args {
				last := i == len(args)-1
				if err := a.client.PrintLine(cmd.Context(), line, fiscal.AlignLeft, cut && last); err != nil {
					return err
				}
			}
			return nil
		},
	}
	text.Flags().BoolVar(&cut, "cut", true, "cut paper after the last line")

	image := &cobra.Command{
		Use:   "image <file>",
		Short: "Print a PNG or JPEG receipt image and cut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return a.desk().PrintReceiptImage(cmd.Context(), f)
		},
	}

	var logoPath string
	var data fiscal.TaxiReceiptData
	slip := &cobra.Command{
		Use:   "slip",
		Short: "Print the ride slip, optionally with a logo",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logoPath == "" {
				return a.desk().PrintReceiptLines(cmd.Context(), data, nil)
			}
			f, err := os.Open(logoPath)
			if err != nil {
				return err
			}
			defer f.Close()
			return a.desk().PrintReceiptLines(cmd.Context(), data, f)
		},
	}
	sf := slip.Flags()
	sf.StringVar(&logoPath, "logo", "", "logo image file")
	sf.StringVar(&data.OrderNumber, "order", "", "order number")
	sf.Float64Var(&data.Price, "price", 0, "ride price")
	sf.StringVar(&data.From, "from", "", "pickup address")
	sf.StringVar(&data.To, "to", "", "destination address")
	sf.StringVar(&data.CarNumber, "car", "", "car plate")
	sf.StringVar(&data.DriverName, "driver", "", "driver name")

	cutCmd := &cobra.Command{
		Use:   "cut",
		Short: "Cut paper",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.CutPaper(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Отрезано")
			return nil
		},
	}

	cmd.AddCommand(text, image, slip, cutCmd)
	return cmd
}
