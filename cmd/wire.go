package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/config"
	"github.com/Mohsinsiddi/smartfund/internal/contract"
	"github.com/Mohsinsiddi/smartfund/internal/funding"
	"github.com/Mohsinsiddi/smartfund/internal/rpc"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
	"github.com/Mohsinsiddi/smartfund/internal/wallet"
)

// fundingApp holds everything a contract command needs.
type fundingApp struct {
	chain    *chain.Chain
	rpcURL   string
	client   *ethclient.Client
	provider *wallet.LocalProvider
	fundMe   *contract.FundMe
	ctrl     *funding.Controller
}

// newFundingApp validates the config, picks an RPC endpoint and wires the
// wallet provider, contract client and controller together.
func newFundingApp(ctx context.Context) (*fundingApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	amount, err := chain.ParseEther(cfg.FundAmount)
	if err != nil {
		return nil, fmt.Errorf("fund_amount: %w", err)
	}

	reg := chain.NewRegistry()
	c, err := resolveChain(reg, cfg.ChainID)
	if err != nil {
		return nil, err
	}

	url, err := pickRPC(ctx, c)
	if err != nil {
		return nil, err
	}
	client, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	logger.Info("rpc selected", zap.String("chain", c.Name), zap.String("url", url))

	mgr := newWalletManager()
	session := wallet.NewSession(cfg.SessionPath())
	local := wallet.NewLocalProvider(mgr, session, reg, client, logger)

	fm, err := contract.NewFundMe(common.HexToAddress(cfg.ContractAddress), client, local, contract.WithLogger(logger))
	if err != nil {
		client.Close()
		return nil, err
	}

	// A nil provider tells the controller there is no wallet at all.
	var provider wallet.Provider
	if len(mgr.Signing()) > 0 {
		provider = local
	}

	ctrl := funding.NewController(provider, fm,
		funding.WithLogger(logger),
		funding.WithChainID(cfg.ChainID),
		funding.WithChainName(c.DisplayName),
		funding.WithFundAmount(amount),
	)

	return &fundingApp{
		chain:    c,
		rpcURL:   url,
		client:   client,
		provider: local,
		fundMe:   fm,
		ctrl:     ctrl,
	}, nil
}

// Close drops the account subscription and the RPC connection.
func (a *fundingApp) Close() {
	if err := a.ctrl.Close(); err != nil {
		logger.Warn("closing controller", zap.Error(err))
	}
	a.client.Close()
}

// connect adopts an authorized account, or requests one when none is.
// The returned error carries the user-facing message from Status.
func (a *fundingApp) connect(ctx context.Context) error {
	if err := a.ctrl.CheckConnection(ctx); err != nil && !errors.Is(err, funding.ErrNoProvider) {
		return statusError(a.ctrl.Status(), err)
	}
	if a.ctrl.Status().Connected() {
		return nil
	}
	if err := a.ctrl.Connect(ctx); err != nil {
		return statusError(a.ctrl.Status(), err)
	}
	return nil
}

// resolveChain looks the configured chain up in the registry. The wallet
// provider only switches to registered chains.
func resolveChain(reg *chain.Registry, hexID string) (*chain.Chain, error) {
	c, err := reg.GetByHexID(hexID)
	if errors.Is(err, chain.ErrChainNotFound) {
		return nil, fmt.Errorf("chain %s is not supported (see: smartfund config chains)", hexID)
	}
	return c, err
}

func pickRPC(ctx context.Context, c *chain.Chain) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()

	urls := rpc.Candidates(c, cfg.GetRPCs(cfg.ChainID), pinnedRPC())
	url, err := rpc.SelectBest(ctx, urls, cfg.RPCAlgorithm)
	if err != nil {
		return "", fmt.Errorf("selecting RPC for %s: %w", c.DisplayName, err)
	}
	return url, nil
}

func pinnedRPC() string {
	if rpcFlag != "" {
		return rpcFlag
	}
	return cfg.RPCURL
}

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())))
}

// statusError prefers the message the controller put in Status.
func statusError(s funding.Status, err error) error {
	if s.Error != "" {
		logger.Debug("command failed", zap.Error(err))
		return errors.New(s.Error)
	}
	return err
}

func errLine(err error) string {
	return ui.Err(err.Error())
}
