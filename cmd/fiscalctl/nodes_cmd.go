package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taxifiscal/internal/models"
	"taxifiscal/pkg/fiscal"
)

func newNodesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Manage saved fiscal node profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved nodes, most recently used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes := a.nodes.List()
			lines := make([]string, 0, len(nodes))
			for _, n := range nodes {
				lines = append(lines, n.DisplayString())
			}
			if len(lines) == 0 {
				lines = append(lines, "Профили не сохранены")
			}
			return a.printResult("Узлы", nodes, lines...)
		},
	}

	var node models.FiscalNode
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a node profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node.Name = args[0]
			if err := a.nodes.Upsert(&node); err != nil {
				return err
			}
			fmt.Println("Сохранено:", node.DisplayString())
			return nil
		},
	}
	add.Flags().StringVar(&node.Host, "host", "", "service host")
	add.Flags().IntVar(&node.Port, "port", fiscal.DefaultPort, "service port")
	add.Flags().StringVar(&node.RegistrationNumber, "rn", "", "device registration number")
	add.Flags().StringVar(&node.SerialNumber, "serial", "", "device serial number")

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a node profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.nodes.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("Удалено:", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
