package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nurpe/dealflow/internal/board"
	"github.com/nurpe/dealflow/internal/client"
	"github.com/nurpe/dealflow/internal/model"
)

func newBoardCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Move cards on the investor or deal kanban",
	}
	cmd.AddCommand(newBoardInvestorCmd(g), newBoardDealCmd(g))
	return cmd
}

type outreachFlags struct {
	to      []string
	subject string
	body    string
	yes     bool
}

func newBoardInvestorCmd(g *globals) *cobra.Command {
	var flags outreachFlags
	cmd := &cobra.Command{
		Use:   "investor <deal-id> <organization-id> <status>",
		Short: "Move an investor on a deal's longlist",
		Long: "Moves an investor card to a new status. A move into CONTACTED sends the outreach " +
			"email and waits for confirmation; it is cancelled when not confirmed within --pending-ttl.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			dealID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("deal id: %w", err)
			}
			orgID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("organization id: %w", err)
			}
			status, err := model.ParseInvestorStatus(args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			investors, err := c.ListInvestors(ctx, dealID)
			if err != nil {
				return err
			}
			var outreach *client.Outreach
			if len(flags.to) > 0 {
				outreach = &client.Outreach{To: flags.to, Subject: flags.subject, Body: flags.body}
			}
			out := cmd.OutOrStdout()
			b := board.NewInvestorBoard(investors, c.InvestorCommitter(dealID, outreach), g.pendingTTL,
				board.WithNotifier[model.DealInvestor](printEvent[model.InvestorStatus](out)))

			key := orgID.String()
			outcome, err := b.Move(ctx, key, board.Column(status))
			if err != nil || outcome != board.OutcomePending {
				return err
			}
			if outreach == nil {
				_ = b.Cancel(key)
				return fmt.Errorf("moving to %s needs --to recipients for the outreach email", status)
			}
			return resolvePending(ctx, cmd.InOrStdin(), out, b, key, flags.yes, g.pendingTTL)
		},
	}
	cmd.Flags().StringSliceVar(&flags.to, "to", nil, "outreach recipients")
	cmd.Flags().StringVar(&flags.subject, "subject", "", "outreach subject")
	cmd.Flags().StringVar(&flags.body, "body", "", "outreach body")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "confirm gated moves without asking")
	return cmd
}

// resolvePending asks for confirmation of a gated move. No answer within ttl expires the move.
func resolvePending(ctx context.Context, in io.Reader, out io.Writer, b *board.InvestorBoard, key string, yes bool, ttl time.Duration) error {
	if yes {
		_, err := b.Confirm(ctx, key)
		return err
	}
	pending, _ := b.Pending(key)
	fmt.Fprintf(out, "send outreach and mark %s as %s? [y/N] ", key, pending.To)

	answers := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(in).ReadString('\n')
		answers <- strings.ToLower(strings.TrimSpace(line))
	}()

	var expired <-chan time.Time
	if ttl > 0 {
		timer := time.NewTimer(ttl)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case answer := <-answers:
		if answer == "y" || answer == "yes" {
			_, err := b.Confirm(ctx, key)
			return err
		}
		return b.Cancel(key)
	case <-expired:
		if len(b.ExpirePending()) == 0 {
			return b.Cancel(key)
		}
		return nil
	case <-ctx.Done():
		_ = b.Cancel(key)
		return ctx.Err()
	}
}

func newBoardDealCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "deal <deal-id> <stage>",
		Short: "Move a deal on the deal kanban",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			dealID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("deal id: %w", err)
			}
			stage, err := model.ParseDealStage(args[1])
			if err != nil {
				return err
			}
			view, err := c.GetDeal(cmd.Context(), dealID)
			if err != nil {
				return err
			}
			b := board.NewDealBoard([]model.Deal{view.Deal}, c.DealCommitter(),
				board.WithNotifier[model.Deal](printEvent[model.DealStage](cmd.OutOrStdout())))
			_, err = b.Move(cmd.Context(), args[0], board.Column(stage))
			return err
		},
	}
}

func printEvent[S comparable](out io.Writer) func(board.Event[S]) {
	return func(ev board.Event[S]) {
		switch ev.Outcome {
		case board.OutcomeRolledBack:
			fmt.Fprintf(out, "%s: %v -> %v failed, reverted\n", ev.Key, ev.From, ev.To)
		default:
			fmt.Fprintf(out, "%s: %v -> %v %s\n", ev.Key, ev.From, ev.To, ev.Outcome)
		}
	}
}
