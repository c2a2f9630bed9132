package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
	"github.com/Mohsinsiddi/smartfund/internal/wallet"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet (private key kept in the OS keychain) or a
watch-only address.

  smartfund wallet add alice --key 0x...
  smartfund wallet add treasury 0xAbC...`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		if walletKeyFlag != "" {
			w, err := mgr.AddWithKey(name, walletKeyFlag)
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
			fmt.Println(ui.Hint("Set as default with: smartfund wallet use " + name))
			return nil
		}

		if len(args) < 2 {
			return fmt.Errorf("address required for watch-only wallet\n  Usage: smartfund wallet add <name> <address>\n  Or for signing: smartfund wallet add <name> --key <private-key>")
		}
		if err := mgr.Add(name, args[1]); err != nil {
			return err
		}
		w, _ := mgr.Get(name)
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a new keypair and store the private key in the OS keychain.

The private key is displayed ONCE. Store it in a password manager.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		w, hexKey, err := mgr.Generate(args[0])
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Printf("  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Println(ui.StyleErrorBanner.Render(
			"SAVE YOUR PRIVATE KEY. It is shown only once.\n\n0x" + hexKey,
		))
		fmt.Println()
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		wallets := mgr.List()

		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Add one with: smartfund wallet add alice --key <private-key>"))
			return nil
		}

		session := wallet.NewSession(cfg.SessionPath())
		selected := session.Selected()

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Type", Width: 12},
			{Title: "Default", Width: 8},
			{Title: "Session", Width: 10},
		})
		for _, w := range wallets {
			def := ""
			if w.IsDefault {
				def = ui.StyleSuccess.Render("✓")
			}
			state := ""
			if _, ok := session.Get(w.KeyRef); ok && w.CanSign() {
				state = ui.Meta("unlocked")
			}
			if w.Name == selected {
				state = ui.StyleSelected.Render("selected")
			}
			t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), def, state})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default wallet",
	Long:  `Set the wallet used by fund and withdraw. Without a name a picker is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			picked, err := pickSigningWallet(mgr, "Select default wallet")
			if err != nil || picked == "" {
				return err
			}
			name = picked
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		// The next connect should pick the new default.
		if err := wallet.NewSession(cfg.SessionPath()).Select(name); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		mgr := newWalletManager()
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if err := wallet.NewSession(cfg.SessionPath()).Remove(w.KeyRef); err != nil {
			logger.Sugar().Warnw("could not drop session key", "wallet", name, "error", err)
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Authorize a wallet for this machine's session",
	Long: `Read the wallet key from the OS keychain once and cache it in a
restricted session file, so fund and withdraw run without prompts.

The unlocked wallet becomes the selected account.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		session := wallet.NewSession(cfg.SessionPath())
		provider := wallet.NewLocalProvider(mgr, session, chain.NewRegistry(), nil, logger)

		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			picked, err := pickSigningWallet(mgr, "Unlock wallet")
			if err != nil || picked == "" {
				return err
			}
			name = picked
		}

		fmt.Println(ui.Info("Your OS keychain may prompt once."))
		if err := provider.Select(name); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%q unlocked. Run 'smartfund wallet lock' to forget it.", name)))
		return nil
	},
}

var walletLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Forget every unlocked key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session := wallet.NewSession(cfg.SessionPath())
		if !session.Active() {
			fmt.Println(ui.Meta("No active session, nothing to clear."))
			return nil
		}
		if err := session.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Println(ui.Success("Session cleared. The keychain will be used on next access."))
		return nil
	},
}

func pickSigningWallet(mgr *wallet.Manager, title string) (string, error) {
	signing := mgr.Signing()
	if len(signing) == 0 {
		fmt.Println(ui.Info("No signing wallets found."))
		fmt.Println(ui.Hint("Add one with: smartfund wallet add <name> --key <private-key>"))
		return "", nil
	}
	items := make([]ui.PickerItem, len(signing))
	for i, w := range signing {
		items[i] = ui.PickerItem{Label: w.Name, SubLabel: w.Address, Value: w.Name}
	}
	picked, err := ui.PickItem(title, items)
	if err != nil {
		return "", err
	}
	if picked == "" {
		fmt.Println(ui.Meta("Cancelled."))
	}
	return picked, nil
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing wallet (stored in OS keychain)")
	walletCmd.AddCommand(walletAddCmd, walletGenerateCmd, walletListCmd, walletUseCmd,
		walletRemoveCmd, walletUnlockCmd, walletLockCmd)
}
