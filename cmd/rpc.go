package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/rpc"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints for the configured chain",
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a custom RPC URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		if !strings.HasPrefix(url, "http") && !strings.HasPrefix(url, "ws") {
			return fmt.Errorf("RPC URL must be http(s) or ws(s): %q", url)
		}
		if err := cfg.AddRPC(cfg.ChainID, url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(cfg.ChainID), url)))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(cfg.ChainID, args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", cfg.ChainID, args[0])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List RPCs for the configured chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain(chain.NewRegistry(), cfg.ChainID)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s", c.DisplayName)))
		if p := pinnedRPC(); p != "" {
			fmt.Printf("  %s %s\n", ui.Meta("(pinned) "), p)
		}
		for _, r := range cfg.GetRPCs(cfg.ChainID) {
			fmt.Printf("  %s %s\n", ui.Meta("(custom) "), r)
		}
		for _, r := range c.RPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(builtin)"), r)
		}
		return nil
	},
}

var rpcTestCmd = &cobra.Command{
	Use:     "test",
	Aliases: []string{"benchmark"},
	Short:   "Benchmark every RPC for the configured chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := resolveChain(chain.NewRegistry(), cfg.ChainID)
		if err != nil {
			return err
		}
		urls := rpc.Candidates(c, cfg.GetRPCs(cfg.ChainID), "")
		if p := pinnedRPC(); p != "" {
			urls = append([]string{p}, urls...)
		}

		fmt.Printf("%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("Benchmarking %s RPCs...", c.DisplayName)))

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		results := rpc.Benchmark(ctx, urls)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10},
			{Title: "Block #", Width: 12},
			{Title: "Status", Width: 10},
		})
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if r.Err != nil {
				status = ui.Err("down")
				latency = "-"
				block = "-"
			}
			t.AddRow(ui.Row{r.URL, latency, block, status})
		}
		fmt.Println(t.Render())

		best, err := rpc.NewPicker(rpc.Algorithm(cfg.RPCAlgorithm)).Pick(rpc.ResultsToEndpoints(results))
		if err != nil {
			fmt.Println(ui.Warn("No healthy RPC found."))
			return nil
		}
		fmt.Println(ui.Info(fmt.Sprintf("%s would pick %s", cfg.RPCAlgorithm, best.URL)))
		return nil
	},
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcTestCmd)
}
