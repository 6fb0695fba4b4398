package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/coinledger/internal/adapter/http/dto"
)

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &client{}
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:   "coinledger-cli",
		Short: "Coin ledger CLI tool",
		Long:  `Operator tooling for a running coin ledger: shop listing and ledger checks.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.http = &http.Client{Timeout: timeout}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("COINLEDGER_TOKEN"), "Bearer token")

	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "List the shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []dto.ItemResponse
			if err := c.get("/api/v1/items", &items); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, item := range items {
				fmt.Fprintf(out, "%-24s %d\n", truncate(item.Name, 24), item.Price)
			}
			return nil
		},
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.checkConsistency(cmd.OutOrStdout())
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Print accounts whose balance differs from their journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationResponse
			if err := c.get("/api/v1/ledger/reconciliation", &report); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accounts: %d, reconciled: %d, ledger consistent: %v\n",
				report.TotalAccounts, report.ReconciledAccounts, report.LedgerConsistent)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "%-20s recorded=%d journal=%d diff=%d\n",
					truncate(d.AccountID, 20), d.RecordedBalance, d.CalculatedBalance, d.Difference)
			}
			return nil
		},
	}

	ledgerCmd.AddCommand(consistencyCmd, reconcileCmd)
	rootCmd.AddCommand(itemsCmd, ledgerCmd)

	return rootCmd
}

func (c *client) checkConsistency(out io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/v1/ledger/consistency", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("consistency check FAILED (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Fprintf(out, "Consistency check PASSED\n")
	fmt.Fprintf(out, "Status: %s\n", result["status"])
	return nil
}

func (c *client) get(path string, v any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.Unmarshal(body, v)
}

func (c *client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
