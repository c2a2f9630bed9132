package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
	"github.com/Mohsinsiddi/smartfund/internal/config"
	"github.com/Mohsinsiddi/smartfund/internal/wallet"
)

var (
	// ErrNoProvider is returned when the controller has no wallet provider.
	ErrNoProvider = errors.New("no wallet provider")
	// ErrNoAccount is returned by Fund and Withdraw when no account is connected.
	ErrNoAccount = errors.New("no connected account")
)

// Contract is the funding contract as seen by the controller.
// *contract.FundMe satisfies it.
type Contract interface {
	Balance(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	AmountFunded(ctx context.Context, funder common.Address) (*big.Int, error)
	Fund(ctx context.Context, from common.Address, value *big.Int) (*types.Transaction, error)
	Withdraw(ctx context.Context, from common.Address) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Controller owns the Status and runs the wallet and contract handlers.
// Handlers may be called from several goroutines; transitions are applied
// one at a time.
type Controller struct {
	provider wallet.Provider // nil means no wallet is available
	contract Contract
	log      *zap.Logger

	chainID    string
	chainName  string
	fundAmount *big.Int

	mu        sync.Mutex
	status    Status
	observers []func(Status)
	watchCtx  context.Context

	watchMu sync.Mutex
	handler wallet.AccountsHandler
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithChainID sets the hex chain id requested on Connect.
func WithChainID(hexID string) Option {
	return func(c *Controller) { c.chainID = hexID }
}

// WithChainName sets the network name used in the switch-network message.
func WithChainName(name string) Option {
	return func(c *Controller) { c.chainName = name }
}

// WithFundAmount sets the wei value sent by Fund.
func WithFundAmount(wei *big.Int) Option {
	return func(c *Controller) { c.fundAmount = new(big.Int).Set(wei) }
}

// WithObserver registers fn to receive every new Status.
func WithObserver(fn func(Status)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// NewController creates a Controller. A nil provider models a machine with no
// wallet.
func NewController(provider wallet.Provider, contract Contract, opts ...Option) *Controller {
	fund, _ := chain.ParseEther(config.DefaultFundAmount)
	c := &Controller{
		provider:   provider,
		contract:   contract,
		log:        zap.NewNop(),
		chainID:    config.DefaultChainID,
		chainName:  "Sepolia",
		fundAmount: fund,
		status:     Initial(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("funding")
	return c
}

// Observe registers fn to receive every new Status. fn runs on the goroutine
// that caused the transition, outside the controller lock.
func (c *Controller) Observe(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Status returns a snapshot of the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// FundAmount returns the wei value sent by Fund.
func (c *Controller) FundAmount() *big.Int {
	return new(big.Int).Set(c.fundAmount)
}

// CheckConnection adopts an already authorized account without prompting.
// No authorized accounts is not an error.
func (c *Controller) CheckConnection(ctx context.Context) error {
	if c.provider == nil {
		c.apply(Failed{Msg: MsgConnectionCheck})
		return fmt.Errorf("check connection: %w", ErrNoProvider)
	}

	accounts, err := c.provider.Request(ctx, wallet.MethodAccounts)
	if err != nil {
		c.log.Warn("eth_accounts failed", zap.Error(err))
		c.apply(Failed{Msg: MsgConnectionCheck})
		return fmt.Errorf("check connection: %w", err)
	}
	if len(accounts) == 0 {
		return nil
	}

	c.apply(Connected{Addr: accounts[0]})
	return c.Refresh(ctx, accounts[0])
}

// Connect switches the wallet to the configured chain, requests account
// access and loads the first account's contract data.
func (c *Controller) Connect(ctx context.Context) error {
	if c.provider == nil {
		c.apply(Failed{Msg: MsgWalletMissing})
		return fmt.Errorf("connect: %w", ErrNoProvider)
	}

	_, err := c.provider.Request(ctx, wallet.MethodSwitchChain, wallet.SwitchChainParams{ChainID: c.chainID})
	if err != nil {
		c.log.Warn("chain switch rejected", zap.String("chain_id", c.chainID), zap.Error(err))
		c.apply(Failed{Msg: SwitchNetworkMessage(c.chainName)})
		return fmt.Errorf("switch chain: %w", err)
	}

	accounts, err := c.provider.Request(ctx, wallet.MethodRequestAccounts)
	if err == nil && len(accounts) == 0 {
		err = errors.New("wallet returned no accounts")
	}
	if err != nil {
		c.log.Warn("eth_requestAccounts failed", zap.Error(err))
		c.apply(Failed{Msg: MsgConnect})
		return fmt.Errorf("request accounts: %w", err)
	}

	c.apply(Connected{Addr: accounts[0]})
	return c.Refresh(ctx, accounts[0])
}

// Refresh reads balance, owner and the account's contribution. On any
// failure the previous values are kept.
func (c *Controller) Refresh(ctx context.Context, account string) error {
	r, err := c.read(ctx, account)
	if err != nil {
		c.log.Warn("contract read failed", zap.String("account", account), zap.Error(err))
		c.apply(Failed{Msg: MsgDataFetch})
		return err
	}
	c.apply(r)
	return nil
}

// Fund sends the configured amount to the contract from the connected
// account, waits for it to be mined and refreshes.
func (c *Controller) Fund(ctx context.Context) (*types.Receipt, error) {
	return c.transact(ctx, "fund", MsgFundFailed, func(from common.Address) (*types.Transaction, error) {
		return c.contract.Fund(ctx, from, c.fundAmount)
	})
}

// Withdraw calls the owner-only withdraw from the connected account.
func (c *Controller) Withdraw(ctx context.Context) (*types.Receipt, error) {
	return c.transact(ctx, "withdraw", MsgWithdrawFailed, func(from common.Address) (*types.Transaction, error) {
		return c.contract.Withdraw(ctx, from)
	})
}

// Watch follows accountsChanged for the controller's lifetime. ctx bounds the
// refreshes triggered by account changes. Calling Watch again is a no-op.
func (c *Controller) Watch(ctx context.Context) error {
	if c.provider == nil {
		return nil
	}
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.handler != nil {
		return nil
	}

	c.mu.Lock()
	c.watchCtx = ctx
	c.mu.Unlock()

	handler := wallet.AccountsHandler(c.onAccountsChanged)
	if err := c.provider.On(wallet.EventAccountsChanged, handler); err != nil {
		return fmt.Errorf("subscribing to %s: %w", wallet.EventAccountsChanged, err)
	}
	c.handler = handler
	return nil
}

// Close removes the accountsChanged subscription.
func (c *Controller) Close() error {
	c.watchMu.Lock()
	handler := c.handler
	c.handler = nil
	c.watchMu.Unlock()

	if handler == nil {
		return nil
	}
	return c.provider.RemoveListener(wallet.EventAccountsChanged, handler)
}

// --- internal ---

func (c *Controller) onAccountsChanged(accounts []string) {
	if len(accounts) == 0 {
		c.log.Info("wallet disconnected")
		c.apply(Disconnected{})
		return
	}
	c.log.Info("account changed", zap.String("account", accounts[0]))
	c.apply(Connected{Addr: accounts[0]})

	c.mu.Lock()
	ctx := c.watchCtx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_ = c.Refresh(ctx, accounts[0])
}

func (c *Controller) read(ctx context.Context, account string) (Refreshed, error) {
	if !common.IsHexAddress(account) {
		return Refreshed{}, fmt.Errorf("invalid account %q", account)
	}
	balance, err := c.contract.Balance(ctx)
	if err != nil {
		return Refreshed{}, fmt.Errorf("reading balance: %w", err)
	}
	owner, err := c.contract.Owner(ctx)
	if err != nil {
		return Refreshed{}, fmt.Errorf("reading owner: %w", err)
	}
	funded, err := c.contract.AmountFunded(ctx, common.HexToAddress(account))
	if err != nil {
		return Refreshed{}, fmt.Errorf("reading contribution: %w", err)
	}
	return Refreshed{
		Balance:     chain.FormatEther(balance),
		Contributed: chain.FormatEther(funded),
		IsOwner:     strings.EqualFold(owner.Hex(), account),
	}, nil
}

func (c *Controller) transact(ctx context.Context, method, failMsg string, send func(common.Address) (*types.Transaction, error)) (*types.Receipt, error) {
	c.apply(TxStarted{})

	account := c.Status().Account
	receipt, err := c.sendAndWait(ctx, account, method, send)
	if err != nil {
		c.log.Warn("transaction failed", zap.String("method", method), zap.String("account", account), zap.Error(err))
		c.apply(TxFailed{Msg: failMsg})
		return receipt, err
	}

	c.log.Info("transaction mined",
		zap.String("method", method),
		zap.String("hash", receipt.TxHash.Hex()),
		zap.Stringer("block", receipt.BlockNumber))
	_ = c.Refresh(ctx, account)
	c.apply(TxSucceeded{})
	return receipt, nil
}

func (c *Controller) sendAndWait(ctx context.Context, account, method string, send func(common.Address) (*types.Transaction, error)) (*types.Receipt, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%s: %w", method, ErrNoAccount)
	}
	tx, err := send(common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	receipt, err := c.contract.WaitMined(ctx, tx)
	if err != nil {
		return receipt, fmt.Errorf("%s %s: %w", method, tx.Hash().Hex(), err)
	}
	return receipt, nil
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	c.status = Reduce(c.status, ev)
	snap := c.status
	observers := c.observers
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
