// Command dealflowctl drives the dealflow API from a terminal.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/dealflow/internal/client"
)

type globals struct {
	apiURL     string
	token      string
	pendingTTL time.Duration
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "dealflowctl",
		Short:         "Operate deal and investor pipelines through the dealflow API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&g.apiURL, "api-url", envOr("DEALFLOW_API_URL", "http://localhost:7090"), "API base URL (env: DEALFLOW_API_URL)")
	flags.StringVar(&g.token, "token", os.Getenv("DEALFLOW_TOKEN"), "Bearer token (env: DEALFLOW_TOKEN)")
	flags.DurationVar(&g.pendingTTL, "pending-ttl", envDuration("OUTREACH_PENDING_TTL", 30*time.Minute), "how long a gated move waits for confirmation")

	root.AddCommand(
		newDealsCmd(g),
		newInvestorsCmd(g),
		newBoardCmd(g),
		newDashboardCmd(g),
		newTokenCmd(),
	)
	return root
}

func (g *globals) client() (*client.Client, error) {
	if strings.TrimSpace(g.apiURL) == "" {
		return nil, errors.New("--api-url required")
	}
	return &client.Client{BaseURL: g.apiURL, Token: g.token}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
