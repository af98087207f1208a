package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nurpe/dealflow/internal/model"
)

func newDealsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "List deals and advance their stage",
	}

	var stage string
	list := &cobra.Command{
		Use:   "list",
		Short: "List deals, optionally in one stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			var filter model.DealStage
			if strings.TrimSpace(stage) != "" {
				if filter, err = model.ParseDealStage(stage); err != nil {
					return err
				}
			}
			deals, err := c.ListDeals(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, d := range deals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-9s\t%-22s\t%s\n", d.ID, d.Stage, d.ProjectStep, d.Name)
			}
			return nil
		},
	}
	list.Flags().StringVar(&stage, "stage", "", "PITCH|MANDATE|CLOSING|ARCHIVED")

	analytics := &cobra.Command{
		Use:   "analytics <deal-id>",
		Short: "Show the investor funnel and conversion rates of a deal",
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
			result, err := c.Analytics(cmd.Context(), dealID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.AddCommand(list, analytics)
	return cmd
}

func newDashboardCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show pipeline KPIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			dashboard, err := c.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dashboard)
		},
	}
}
