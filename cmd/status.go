package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var statusAccount string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the contract balance and your contribution",
	Long: `Show the contract balance, owner status and contribution.

Without --account the authorized wallet account is used, if any.
No wallet prompt is shown; run 'smartfund fund' or the interactive
screen to connect a wallet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if statusAccount != "" && !common.IsHexAddress(statusAccount) {
			return fmt.Errorf("invalid address %q", statusAccount)
		}

		app, err := newFundingApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		account := statusAccount
		if account == "" {
			_ = app.ctrl.CheckConnection(ctx)
			account = app.ctrl.Status().Account
		} else if err := app.ctrl.Refresh(ctx, account); err != nil {
			return statusError(app.ctrl.Status(), err)
		}

		pairs := [][2]string{
			{"Network", app.chain.DisplayName},
			{"RPC", app.rpcURL},
			{"Contract", cfg.ContractAddress},
		}

		if account == "" {
			bal, err := app.fundMe.Balance(ctx)
			if err != nil {
				return fmt.Errorf("reading contract balance: %w", err)
			}
			pairs = append(pairs,
				[2]string{"Balance", chain.FormatEther(bal) + " " + app.chain.NativeCurrency},
				[2]string{"Account", "not connected"},
			)
			fmt.Println(ui.KeyValueBlock("FundMe", pairs))
			fmt.Println(ui.Hint("Connect with: smartfund app   or pass --account <address>"))
			return nil
		}

		s := app.ctrl.Status()
		if s.Error != "" {
			return fmt.Errorf("%s", s.Error)
		}
		owner := "no"
		if s.IsOwner {
			owner = "yes"
		}
		pairs = append(pairs,
			[2]string{"Balance", s.Balance + " " + app.chain.NativeCurrency},
			[2]string{"Account", common.HexToAddress(account).Hex()},
			[2]string{"Contributed", s.Contributed + " " + app.chain.NativeCurrency},
			[2]string{"Owner", owner},
		)
		fmt.Println(ui.KeyValueBlock("FundMe", pairs))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAccount, "account", "", "show the contribution of this address")
}
