package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/config"
	"github.com/Mohsinsiddi/smartfund/internal/funding"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Open the interactive funding screen",
	Long: `Open the interactive funding screen.

  [c] connect   [r] refresh   [f] fund   [w] withdraw (owner only)
  [s] switch wallet   [d] disconnect   [q] quit

The screen follows wallet changes: switching or disconnecting a wallet
reloads the contract data for the new account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd.Context())
	},
}

func runApp(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Println(ui.Banner())
	sp := ui.NewSpinner("Selecting RPC endpoint...")
	sp.Start()
	app, err := newFundingApp(ctx)
	sp.Stop()
	if err != nil {
		return err
	}
	defer app.Close()

	info := ui.FundingInfo{
		Network:    app.chain.DisplayName,
		Contract:   cfg.ContractAddress,
		FundAmount: cfg.FundAmount,
		Currency:   app.chain.NativeCurrency,
	}
	actions := &screenActions{ctx: ctx, app: app}
	prog := tea.NewProgram(ui.NewFundingModel(info, app.ctrl.Status(), actions), tea.WithAltScreen())

	app.ctrl.Observe(func(s funding.Status) {
		prog.Send(ui.StatusMsg(s))
	})
	if err := app.ctrl.Watch(ctx); err != nil {
		return err
	}

	_, err = prog.Run()
	return err
}

// screenActions binds the funding screen keys to the controller and the
// local wallet provider.
type screenActions struct {
	ctx context.Context
	app *fundingApp
}

func (a *screenActions) CheckConnection() error {
	return a.app.ctrl.CheckConnection(a.ctx)
}

func (a *screenActions) Connect() error {
	return a.app.ctrl.Connect(a.ctx)
}

func (a *screenActions) Refresh() error {
	return a.app.ctrl.Refresh(a.ctx, a.app.ctrl.Status().Account)
}

func (a *screenActions) Fund() error {
	ctx, cancel := context.WithTimeout(a.ctx, config.TxConfirmTimeout)
	defer cancel()
	_, err := a.app.ctrl.Fund(ctx)
	return err
}

func (a *screenActions) Withdraw() error {
	ctx, cancel := context.WithTimeout(a.ctx, config.TxConfirmTimeout)
	defer cancel()
	_, err := a.app.ctrl.Withdraw(ctx)
	return err
}

func (a *screenActions) NextWallet() (string, error) {
	w, err := a.app.provider.SelectNext()
	if err != nil {
		return "", err
	}
	return w.Name, nil
}

func (a *screenActions) Disconnect() error {
	return a.app.provider.Disconnect()
}

var _ ui.FundingActions = (*screenActions)(nil)
