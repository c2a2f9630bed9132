package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/smartfund/internal/config"
	"github.com/Mohsinsiddi/smartfund/internal/logging"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/smartfund/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = logging.Nop()
	verbose bool
	rpcFlag string
)

// rootCmd is the top-level command. Without a sub-command it opens the
// interactive funding screen.
var rootCmd = &cobra.Command{
	Use:   "smartfund",
	Short: "Fund and withdraw from a FundMe contract",
	Long: `smartfund connects a local wallet to a FundMe contract.

  Check the contract balance and your contribution, send funds and,
  if you own the contract, withdraw everything it holds.

Running smartfund with no sub-command opens the interactive screen.
The network, contract and fund amount come from the config file
(see: smartfund config show) or SMARTFUND_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err = logging.New(logging.Options{
			Dir:     cfg.LogDir(),
			Level:   cfg.LogLevel,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		logger.Debug("command started", zap.String("command", cmd.CommandPath()), zap.String("config_dir", cfg.Dir()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		os.Exit(1)
	}
}

func init() {
	// SMARTFUND_CONFIG_DIR env var sets the default for --config.
	if envDir := os.Getenv("SMARTFUND_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.smartfund)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "use this RPC URL instead of selecting one")

	rootCmd.AddCommand(
		appCmd,
		statusCmd,
		fundCmd,
		withdrawCmd,
		walletCmd,
		rpcCmd,
		configCmd,
		abiCmd,
	)
}
