package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/config"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var (
	fundAmountFlag string
	txYes          bool
)

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Send the configured amount to the contract",
	Long: `Send fund_amount (default 0.1 ETH) to the FundMe contract from the
selected wallet, wait for the transaction to be mined and show the
updated balance and contribution.

  smartfund fund
  smartfund fund --amount 0.05 --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fundAmountFlag != "" {
			cfg.FundAmount = fundAmountFlag
		}
		return runTx(cmd.Context(), "fund")
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the contract balance (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTx(cmd.Context(), "withdraw")
	},
}

func runTx(ctx context.Context, method string) error {
	app, err := newFundingApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.connect(ctx); err != nil {
		return err
	}
	s := app.ctrl.Status()
	currency := app.chain.NativeCurrency

	var prompt string
	switch method {
	case "fund":
		prompt = fmt.Sprintf("Send %s %s from %s to %s on %s?",
			cfg.FundAmount, currency, s.ShortAccount(), cfg.ContractAddress, app.chain.DisplayName)
	default:
		if !s.IsOwner {
			return fmt.Errorf("%s is not the contract owner", s.Account)
		}
		prompt = fmt.Sprintf("Withdraw %s %s from %s?", s.Balance, currency, cfg.ContractAddress)
	}
	if !txYes && !ui.Confirm(prompt) {
		fmt.Println(ui.Meta("Cancelled."))
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, config.TxConfirmTimeout)
	defer cancel()

	sp := ui.NewSpinner("Waiting for the transaction to be mined...")
	sp.Start()
	var receipt *types.Receipt
	if method == "fund" {
		receipt, err = app.ctrl.Fund(txCtx)
	} else {
		receipt, err = app.ctrl.Withdraw(txCtx)
	}
	sp.Stop()
	if err != nil {
		if receipt != nil {
			printReceipt(app, "Reverted", receipt)
		}
		return statusError(app.ctrl.Status(), err)
	}

	s = app.ctrl.Status()
	if method == "fund" {
		fmt.Println(ui.Success(fmt.Sprintf("Funded %s %s", cfg.FundAmount, currency)))
	} else {
		fmt.Println(ui.Success("Contract balance withdrawn"))
	}
	printReceipt(app, "Mined", receipt)
	fmt.Println(ui.KeyValueBlock("", [][2]string{
		{"Balance", s.Balance + " " + currency},
		{"Contributed", s.Contributed + " " + currency},
	}))
	return nil
}

func printReceipt(app *fundingApp, title string, r *types.Receipt) {
	hash := r.TxHash.Hex()
	pairs := [][2]string{
		{"Tx", hash},
		{"Block", r.BlockNumber.String()},
		{"Gas used", fmt.Sprintf("%d", r.GasUsed)},
	}
	if url := app.chain.TxURL(hash); url != "" {
		pairs = append(pairs, [2]string{"Explorer", url})
	}
	fmt.Println(ui.KeyValueBlock(title, pairs))
}

func init() {
	fundCmd.Flags().StringVar(&fundAmountFlag, "amount", "", "ETH to send instead of fund_amount")
	for _, c := range []*cobra.Command{fundCmd, withdrawCmd} {
		c.Flags().BoolVarP(&txYes, "yes", "y", false, "skip the confirmation prompt")
	}
}
