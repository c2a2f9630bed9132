package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/smartfund/internal/chain"
)

// Wallet RPC methods and events understood by a Provider.
const (
	MethodAccounts        = "eth_accounts"
	MethodRequestAccounts = "eth_requestAccounts"
	MethodSwitchChain     = "wallet_switchEthereumChain"

	EventAccountsChanged = "accountsChanged"
)

var (
	ErrChainRejected     = errors.New("chain switch rejected")
	ErrNoSigningWallet   = errors.New("no signing wallet available")
	ErrNotAuthorized     = errors.New("account not authorized")
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrUnsupportedEvent  = errors.New("unsupported event")
)

// AccountsHandler receives the new authorized account list. An empty list
// means the wallet disconnected.
type AccountsHandler func(accounts []string)

// Provider is the wallet capability the funding controller talks to.
type Provider interface {
	Request(ctx context.Context, method string, params ...any) ([]string, error)
	On(event string, handler AccountsHandler) error
	RemoveListener(event string, handler AccountsHandler) error
}

// SwitchChainParams is the single parameter of wallet_switchEthereumChain.
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// ChainIDReader reports the chain id of the connected node.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// LocalProvider is a Provider over the local wallet store. Authorized
// accounts are the signing wallets whose keys sit in the session.
type LocalProvider struct {
	wallets *Manager
	session *Session
	chains  *chain.Registry
	node    ChainIDReader
	bus     evbus.Bus
	log     *zap.Logger

	mu sync.Mutex // serializes account-set changes
}

// NewLocalProvider wires a LocalProvider. node may be nil, in which case
// every chain switch is rejected.
func NewLocalProvider(wallets *Manager, session *Session, chains *chain.Registry, node ChainIDReader, log *zap.Logger) *LocalProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalProvider{
		wallets: wallets,
		session: session,
		chains:  chains,
		node:    node,
		bus:     evbus.New(),
		log:     log.Named("provider"),
	}
}

// Request dispatches a wallet RPC method.
func (p *LocalProvider) Request(ctx context.Context, method string, params ...any) ([]string, error) {
	switch method {
	case MethodAccounts:
		return p.accounts(), nil
	case MethodRequestAccounts:
		return p.requestAccounts()
	case MethodSwitchChain:
		return nil, p.switchChain(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

// On subscribes handler to event. Handlers run synchronously on the
// goroutine that changed the account set and must not call On or
// RemoveListener themselves.
func (p *LocalProvider) On(event string, handler AccountsHandler) error {
	if event != EventAccountsChanged {
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, event)
	}
	return p.bus.Subscribe(event, handler)
}

// RemoveListener unsubscribes a handler previously passed to On.
func (p *LocalProvider) RemoveListener(event string, handler AccountsHandler) error {
	if event != EventAccountsChanged {
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, event)
	}
	return p.bus.Unsubscribe(event, handler)
}

// Select authorizes the named signing wallet, makes it the selected account
// and announces the new account list.
func (p *LocalProvider) Select(name string) error {
	p.mu.Lock()
	w, err := p.wallets.Get(name)
	if err == nil {
		err = p.authorize(w)
	}
	accounts := p.accounts()
	p.mu.Unlock()
	if err != nil {
		return err
	}

	p.publish(accounts)
	return nil
}

// SelectNext selects the signing wallet after the current one (by name),
// wrapping around. Returns the wallet selected.
func (p *LocalProvider) SelectNext() (*Wallet, error) {
	signing := p.wallets.Signing()
	if len(signing) == 0 {
		return nil, ErrNoSigningWallet
	}
	current := p.session.Selected()
	next := signing[0]
	for i, w := range signing {
		if w.Name == current {
			next = signing[(i+1)%len(signing)]
			break
		}
	}
	if err := p.Select(next.Name); err != nil {
		return nil, err
	}
	return next, nil
}

// Disconnect forgets every authorized key and announces an empty account list.
func (p *LocalProvider) Disconnect() error {
	p.mu.Lock()
	err := p.session.Clear()
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	p.publish([]string{})
	return nil
}

// SignTx signs tx with the authorized key of from.
func (p *LocalProvider) SignTx(_ context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	w, err := p.wallets.GetByAddress(from.Hex())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, from.Hex())
	}
	key, ok := p.session.Get(w.KeyRef)
	if !w.CanSign() || !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorized, from.Hex())
	}
	return signWithKey(key, from, tx, chainID)
}

// --- internal ---

// accounts lists authorized addresses, selected wallet first.
func (p *LocalProvider) accounts() []string {
	keys := p.session.Snapshot()
	selected := p.session.Selected()

	out := []string{}
	for _, w := range p.wallets.Signing() {
		if _, ok := keys[w.KeyRef]; !ok {
			continue
		}
		if w.Name == selected {
			out = append([]string{w.Address}, out...)
		} else {
			out = append(out, w.Address)
		}
	}
	return out
}

func (p *LocalProvider) requestAccounts() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.selectedWallet()
	if w == nil {
		return nil, ErrNoSigningWallet
	}
	if err := p.authorize(w); err != nil {
		return nil, err
	}
	return p.accounts(), nil
}

// selectedWallet prefers the session's selection, then the default wallet.
func (p *LocalProvider) selectedWallet() *Wallet {
	if name := p.session.Selected(); name != "" {
		if w, err := p.wallets.Get(name); err == nil && w.CanSign() {
			return w
		}
	}
	return p.wallets.DefaultSigning()
}

func (p *LocalProvider) authorize(w *Wallet) error {
	if !w.CanSign() {
		return fmt.Errorf("wallet %q is watch-only and cannot sign", w.Name)
	}
	if _, ok := p.session.Get(w.KeyRef); !ok {
		key, err := p.wallets.Keystore().Retrieve(w.KeyRef)
		if err != nil {
			return fmt.Errorf("unlocking %s: %w", w.Name, err)
		}
		if err := p.session.Put(w.KeyRef, key); err != nil {
			return fmt.Errorf("caching key: %w", err)
		}
	}
	if err := p.session.Select(w.Name); err != nil {
		return fmt.Errorf("selecting %s: %w", w.Name, err)
	}
	p.log.Debug("wallet authorized", zap.String("wallet", w.Name), zap.String("address", w.Address))
	return nil
}

func (p *LocalProvider) switchChain(ctx context.Context, params []any) error {
	if len(params) != 1 {
		return fmt.Errorf("%w: expected one parameter", ErrChainRejected)
	}
	var want string
	switch v := params[0].(type) {
	case SwitchChainParams:
		want = v.ChainID
	case *SwitchChainParams:
		want = v.ChainID
	default:
		return fmt.Errorf("%w: bad parameter %T", ErrChainRejected, params[0])
	}

	c, err := p.chains.GetByHexID(want)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrChainRejected, want, err)
	}
	if p.node == nil {
		return fmt.Errorf("%w: no node connected", ErrChainRejected)
	}
	got, err := p.node.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading node chain id: %v", ErrChainRejected, err)
	}
	if got.Int64() != c.ChainID {
		return fmt.Errorf("%w: node is on chain %d, want %s (%d)", ErrChainRejected, got.Int64(), c.DisplayName, c.ChainID)
	}
	return nil
}

func (p *LocalProvider) publish(accounts []string) {
	p.log.Debug("accounts changed", zap.String("accounts", strings.Join(accounts, ",")))
	p.bus.Publish(EventAccountsChanged, accounts)
}
