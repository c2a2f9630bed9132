package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"list"},
	Short:   "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		network := cfg.ChainID
		if c, err := chain.NewRegistry().GetByHexID(cfg.ChainID); err == nil {
			network = fmt.Sprintf("%s (%s)", c.DisplayName, cfg.ChainID)
		}
		rpcURL := cfg.RPCURL
		if rpcURL == "" {
			rpcURL = "auto (" + cfg.RPCAlgorithm + ")"
		}
		defWallet := cfg.DefaultWallet
		if defWallet == "" {
			defWallet = "-"
		}

		pairs := [][2]string{
			{"chain_id", network},
			{"contract_address", cfg.ContractAddress},
			{"fund_amount", cfg.FundAmount},
			{"default_wallet", defWallet},
			{"rpc_url", rpcURL},
			{"rpc_algorithm", cfg.RPCAlgorithm},
			{"log_level", cfg.LogLevel},
		}
		ids := make([]string, 0, len(cfg.CustomRPCs))
		for id := range cfg.CustomRPCs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if urls := cfg.CustomRPCs[id]; len(urls) > 0 {
				pairs = append(pairs, [2]string{"custom_rpcs " + id, strings.Join(urls, ", ")})
			}
		}

		fmt.Println(ui.KeyValueBlock("Current Configuration", pairs))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a config value and save it.

Keys: chain_id, contract_address, fund_amount, default_wallet,
      rpc_url, rpc_algorithm, log_level`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if key == "fund_amount" {
			if _, err := chain.ParseEther(value); err != nil {
				return err
			}
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s set to %q", key, value)))
		return nil
	},
}

var configChainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 18},
			{Title: "Chain ID", Width: 12},
			{Title: "Hex", Width: 12},
			{Title: "Type", Width: 8},
			{Title: "Explorer", Width: 36},
		})
		for _, c := range chain.NewRegistry().All() {
			name := ui.ChainName(c.DisplayName)
			if c.HexID() == cfg.ChainID {
				name = ui.StyleSelected.Render("▶ " + c.DisplayName)
			}
			kind := "mainnet"
			if c.Testnet {
				kind = "testnet"
			}
			t.AddRow(ui.Row{name, fmt.Sprintf("%d", c.ChainID), c.HexID(), ui.Meta(kind), ui.Meta(c.Explorer)})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Hint("Switch with: smartfund config set chain_id <hex>"))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configChainsCmd)
}
