// Package contract talks to the deployed funding contract through go-ethereum's
// ABI codec and any ethclient-compatible backend.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/smartfund/internal/config"
)

var (
	// ErrTxReverted is returned when a transaction is mined with a failed
	// status, or when gas estimation reports a revert.
	ErrTxReverted = errors.New("transaction reverted")
	// ErrNoCode is returned when a call hits an address without contract code.
	ErrNoCode = errors.New("no contract code at address")
)

// Backend is the slice of an Ethereum JSON-RPC client that FundMe needs.
// *ethclient.Client satisfies it.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// TxSigner signs transactions on behalf of an account.
type TxSigner interface {
	SignTx(ctx context.Context, from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// FundMe is a typed client for the funding contract.
type FundMe struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	signer  TxSigner
	log     *zap.Logger

	pollInterval time.Duration

	mu      sync.Mutex
	chainID *big.Int // cached after the first successful eth_chainId
}

// Option configures FundMe.
type Option func(*FundMe)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(f *FundMe) { f.log = log }
}

// WithPollInterval sets how often WaitMined polls for a receipt.
func WithPollInterval(d time.Duration) Option {
	return func(f *FundMe) { f.pollInterval = d }
}

// NewFundMe binds the contract at address. signer may be nil for read-only use.
func NewFundMe(address common.Address, backend Backend, signer TxSigner, opts ...Option) (*FundMe, error) {
	b, ok := GetBuiltin(FundMeID)
	if !ok {
		return nil, fmt.Errorf("builtin %q not registered", FundMeID)
	}
	parsed, err := b.Parse()
	if err != nil {
		return nil, err
	}

	f := &FundMe{
		address:      address,
		abi:          parsed,
		backend:      backend,
		signer:       signer,
		log:          zap.NewNop(),
		pollInterval: config.ReceiptPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Address returns the contract address.
func (f *FundMe) Address() common.Address {
	return f.address
}

// Balance returns the ETH held by the contract.
func (f *FundMe) Balance(ctx context.Context) (*big.Int, error) {
	bal, err := f.backend.BalanceAt(ctx, f.address, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	return bal, nil
}

// Owner returns the contract owner.
func (f *FundMe) Owner(ctx context.Context) (common.Address, error) {
	out, err := f.call(ctx, "getOwner")
	if err != nil {
		return common.Address{}, err
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("getOwner: unexpected result type %T", out[0])
	}
	return owner, nil
}

// AmountFunded returns the cumulative amount funder has sent.
func (f *FundMe) AmountFunded(ctx context.Context, funder common.Address) (*big.Int, error) {
	out, err := f.call(ctx, "getAddressToAmountFunded", funder)
	if err != nil {
		return nil, err
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAddressToAmountFunded: unexpected result type %T", out[0])
	}
	return amount, nil
}

// Fund sends value wei to fund() from the given account. It returns once the
// transaction is broadcast; use WaitMined for the receipt.
func (f *FundMe) Fund(ctx context.Context, from common.Address, value *big.Int) (*types.Transaction, error) {
	return f.transact(ctx, from, value, "fund")
}

// Withdraw calls withdraw() from the given account.
func (f *FundMe) Withdraw(ctx context.Context, from common.Address) (*types.Transaction, error) {
	return f.transact(ctx, from, nil, "withdraw")
}

// WaitMined polls until tx is mined or ctx ends. A failed receipt returns
// ErrTxReverted alongside the receipt.
func (f *FundMe) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := f.backend.TransactionReceipt(ctx, tx.Hash())
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex())
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			f.log.Debug("transaction not yet mined", zap.String("hash", tx.Hash().Hex()))
		default:
			f.log.Warn("receipt retrieval failed", zap.String("hash", tx.Hash().Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// --- internal ---

func (f *FundMe) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := f.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	raw, err := f.backend.CallContract(ctx, ethereum.CallMsg{To: &f.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w %s", method, ErrNoCode, f.address.Hex())
	}
	out, err := f.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

func (f *FundMe) transact(ctx context.Context, from common.Address, value *big.Int, method string) (*types.Transaction, error) {
	if f.signer == nil {
		return nil, fmt.Errorf("%s: no signer configured", method)
	}
	if value == nil {
		value = new(big.Int)
	}

	data, err := f.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}

	chainID, err := f.chain(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := f.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tip, feeCap, err := f.fees(ctx)
	if err != nil {
		return nil, err
	}

	gas, err := f.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &f.address,
		Value: value,
		Data:  data,
	})
	if err != nil {
		if strings.Contains(err.Error(), "execution reverted") {
			return nil, fmt.Errorf("%w: %s: %v", ErrTxReverted, method, err)
		}
		f.log.Warn("gas estimation failed, using fallback",
			zap.String("method", method), zap.Uint64("gas", config.GasLimitContractCall), zap.Error(err))
		gas = config.GasLimitContractCall
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &f.address,
		Value:     value,
		Data:      data,
	})

	signed, err := f.signer.SignTx(ctx, from, tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("signing %s: %w", method, err)
	}
	if err := f.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting %s: %w", method, err)
	}

	f.log.Info("transaction sent",
		zap.String("method", method),
		zap.String("hash", signed.Hash().Hex()),
		zap.String("from", from.Hex()),
		zap.Stringer("value", value))
	return signed, nil
}

// fees returns the EIP-1559 tip and fee cap: 2*baseFee + tip.
func (f *FundMe) fees(ctx context.Context) (tip, feeCap *big.Int, err error) {
	tip, err = f.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("suggesting gas tip: %w", err)
	}
	head, err := f.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching latest header: %w", err)
	}
	if head.BaseFee == nil {
		return tip, new(big.Int).Mul(tip, big.NewInt(2)), nil
	}
	feeCap = new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	return tip, feeCap.Add(feeCap, tip), nil
}

func (f *FundMe) chain(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainID != nil {
		return f.chainID, nil
	}
	id, err := f.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	f.chainID = id
	return id, nil
}
