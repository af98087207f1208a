package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newInvestorsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "investors",
		Short: "Inspect a deal's investor longlist",
	}

	list := &cobra.Command{
		Use:   "list <deal-id>",
		Short: "List the longlist of a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			dealID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("deal id: %w", err)
			}
			investors, err := c.ListInvestors(cmd.Context(), dealID)
			if err != nil {
				return err
			}
			for _, inv := range investors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-16s\t%s\n", inv.OrganizationID, inv.Status, inv.Notes)
			}
			return nil
		},
	}

	cmd.AddCommand(list)
	return cmd
}
