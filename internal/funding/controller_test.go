package funding_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/smartfund/internal/funding"
	"github.com/Mohsinsiddi/smartfund/internal/wallet"
)

const (
	ownerAccount  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	funderAccount = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// --- fakes ---

type fakeProvider struct {
	mu       sync.Mutex
	methods  []string
	params   [][]any
	handlers []wallet.AccountsHandler

	accounts    []string
	accountsErr error
	requested   []string
	requestErr  error
	switchErr   error
}

func (p *fakeProvider) Request(_ context.Context, method string, params ...any) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.methods = append(p.methods, method)
	p.params = append(p.params, params)
	switch method {
	case wallet.MethodAccounts:
		return p.accounts, p.accountsErr
	case wallet.MethodRequestAccounts:
		return p.requested, p.requestErr
	case wallet.MethodSwitchChain:
		return nil, p.switchErr
	}
	return nil, wallet.ErrUnsupportedMethod
}

func (p *fakeProvider) On(_ string, h wallet.AccountsHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
	return nil
}

func (p *fakeProvider) RemoveListener(string, wallet.AccountsHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = p.handlers[:0]
	return nil
}

func (p *fakeProvider) emit(accounts []string) {
	p.mu.Lock()
	handlers := append([]wallet.AccountsHandler{}, p.handlers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(accounts)
	}
}

func (p *fakeProvider) called(method string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.methods {
		if m == method {
			return true
		}
	}
	return false
}

type fakeContract struct {
	mu      sync.Mutex
	balance *big.Int
	owner   common.Address
	funded  map[common.Address]*big.Int

	balanceErr error
	ownerErr   error
	sendErr    error
	waitErr    error

	reads     int // completed balance reads, one per refresh
	fundValue *big.Int
	senders   []common.Address
	duringTx  func()
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		balance: big.NewInt(3e17),
		owner:   common.HexToAddress(ownerAccount),
		funded: map[common.Address]*big.Int{
			common.HexToAddress(funderAccount): big.NewInt(1e17),
		},
	}
}

func (c *fakeContract) Balance(context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.balance, c.balanceErr
}

func (c *fakeContract) Owner(context.Context) (common.Address, error) {
	return c.owner, c.ownerErr
}

func (c *fakeContract) AmountFunded(_ context.Context, who common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.funded[who]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

func (c *fakeContract) Fund(_ context.Context, from common.Address, value *big.Int) (*types.Transaction, error) {
	c.mu.Lock()
	c.fundValue = value
	c.mu.Unlock()
	return c.send(from)
}

func (c *fakeContract) Withdraw(_ context.Context, from common.Address) (*types.Transaction, error) {
	return c.send(from)
}

func (c *fakeContract) send(from common.Address) (*types.Transaction, error) {
	c.mu.Lock()
	c.senders = append(c.senders, from)
	during := c.duringTx
	c.mu.Unlock()
	if during != nil {
		during()
	}
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	return types.NewTx(&types.DynamicFeeTx{Nonce: uint64(len(c.senders))}), nil
}

func (c *fakeContract) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash(), BlockNumber: big.NewInt(1)}, nil
}

func (c *fakeContract) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// --- CheckConnection ---

func TestCheckConnectionNoAccounts(t *testing.T) {
	p := &fakeProvider{}
	c := newFakeContract()
	ctrl := funding.NewController(p, c)

	require.NoError(t, ctrl.CheckConnection(context.Background()))

	s := ctrl.Status()
	assert.Empty(t, s.Account)
	assert.Equal(t, funding.Initial(), s)
	assert.Zero(t, c.readCount(), "no contract reads without an account")
}

func TestCheckConnectionAdoptsFirstAccount(t *testing.T) {
	p := &fakeProvider{accounts: []string{funderAccount, ownerAccount}}
	ctrl := funding.NewController(p, newFakeContract())

	require.NoError(t, ctrl.CheckConnection(context.Background()))

	s := ctrl.Status()
	assert.Equal(t, funderAccount, s.Account)
	assert.Equal(t, "0.3", s.Balance)
	assert.Equal(t, "0.1", s.Contributed)
	assert.False(t, s.IsOwner)
	assert.Empty(t, s.Error)
	assert.False(t, p.called(wallet.MethodRequestAccounts), "checking never prompts")
}

func TestCheckConnectionError(t *testing.T) {
	p := &fakeProvider{accountsErr: errors.New("locked")}
	ctrl := funding.NewController(p, newFakeContract())

	assert.Error(t, ctrl.CheckConnection(context.Background()))
	assert.Equal(t, funding.MsgConnectionCheck, ctrl.Status().Error)
}

func TestIsOwnerIgnoresCase(t *testing.T) {
	tests := []struct {
		account string
		want    bool
	}{
		{strings.ToLower(ownerAccount), true},
		{"0x" + strings.ToUpper(ownerAccount[2:]), true},
		{ownerAccount, true},
		{funderAccount, false},
	}
	for _, tt := range tests {
		p := &fakeProvider{accounts: []string{tt.account}}
		ctrl := funding.NewController(p, newFakeContract())
		require.NoError(t, ctrl.CheckConnection(context.Background()))
		assert.Equal(t, tt.want, ctrl.Status().IsOwner, tt.account)
	}
}

// --- Connect ---

func TestConnectSwitchRejectedSkipsRequestAccounts(t *testing.T) {
	p := &fakeProvider{switchErr: wallet.ErrChainRejected, requested: []string{funderAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c, funding.WithChainName("Sepolia"))

	assert.ErrorIs(t, ctrl.Connect(context.Background()), wallet.ErrChainRejected)

	assert.False(t, p.called(wallet.MethodRequestAccounts))
	assert.Equal(t, funding.SwitchNetworkMessage("Sepolia"), ctrl.Status().Error)
	assert.Contains(t, ctrl.Status().Error, "Sepolia")
	assert.Empty(t, ctrl.Status().Account)
	assert.Zero(t, c.readCount())
}

func TestConnectSuccess(t *testing.T) {
	p := &fakeProvider{requested: []string{ownerAccount}}
	ctrl := funding.NewController(p, newFakeContract(), funding.WithChainID("0x7a69"))

	require.NoError(t, ctrl.Connect(context.Background()))

	assert.Equal(t, []string{wallet.MethodSwitchChain, wallet.MethodRequestAccounts}, p.methods)
	assert.Equal(t, []any{wallet.SwitchChainParams{ChainID: "0x7a69"}}, p.params[0])

	s := ctrl.Status()
	assert.Equal(t, ownerAccount, s.Account)
	assert.True(t, s.IsOwner)
	assert.Equal(t, "0.0", s.Contributed)
}

func TestConnectRequestAccountsFails(t *testing.T) {
	for name, p := range map[string]*fakeProvider{
		"error":       {requestErr: errors.New("user rejected")},
		"no accounts": {requested: []string{}},
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := funding.NewController(p, newFakeContract())
			assert.Error(t, ctrl.Connect(context.Background()))
			assert.Equal(t, funding.MsgConnect, ctrl.Status().Error)
			assert.Empty(t, ctrl.Status().Account)
		})
	}
}

func TestNoProvider(t *testing.T) {
	ctrl := funding.NewController(nil, newFakeContract())
	ctx := context.Background()

	assert.ErrorIs(t, ctrl.Connect(ctx), funding.ErrNoProvider)
	assert.Equal(t, funding.MsgWalletMissing, ctrl.Status().Error)

	assert.ErrorIs(t, ctrl.CheckConnection(ctx), funding.ErrNoProvider)
	assert.Equal(t, funding.MsgConnectionCheck, ctrl.Status().Error)

	assert.NoError(t, ctrl.Watch(ctx))
	assert.NoError(t, ctrl.Close())
}

// --- Refresh ---

func TestRefreshFailureKeepsPreviousValues(t *testing.T) {
	p := &fakeProvider{accounts: []string{funderAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c)
	require.NoError(t, ctrl.CheckConnection(context.Background()))

	c.ownerErr = errors.New("rpc down")
	assert.Error(t, ctrl.Refresh(context.Background(), funderAccount))

	s := ctrl.Status()
	assert.Equal(t, funding.MsgDataFetch, s.Error)
	assert.Equal(t, "0.3", s.Balance)
	assert.Equal(t, "0.1", s.Contributed)
}

// --- Fund / Withdraw ---

func TestFundSuccessRefreshesOnce(t *testing.T) {
	p := &fakeProvider{accounts: []string{funderAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c, funding.WithFundAmount(big.NewInt(5e16)))
	require.NoError(t, ctrl.CheckConnection(context.Background()))

	var loadingDuring bool
	c.duringTx = func() { loadingDuring = ctrl.Status().IsLoading }

	var seen []funding.Status
	ctrl.Observe(func(s funding.Status) { seen = append(seen, s) })

	before := c.readCount()
	receipt, err := ctrl.Fund(context.Background())
	require.NoError(t, err)
	require.NotNil(t, receipt)

	assert.Equal(t, 1, c.readCount()-before, "exactly one refresh")
	assert.True(t, loadingDuring)
	assert.False(t, ctrl.Status().IsLoading)
	assert.Empty(t, ctrl.Status().Error)
	assert.Equal(t, big.NewInt(5e16), c.fundValue)
	assert.Equal(t, []common.Address{common.HexToAddress(funderAccount)}, c.senders)

	require.NotEmpty(t, seen)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[len(seen)-1].IsLoading)
}

func TestFundFailure(t *testing.T) {
	p := &fakeProvider{accounts: []string{funderAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c)
	require.NoError(t, ctrl.CheckConnection(context.Background()))

	c.waitErr = errors.New("reverted")
	before := c.readCount()
	_, err := ctrl.Fund(context.Background())
	assert.Error(t, err)

	s := ctrl.Status()
	assert.False(t, s.IsLoading)
	assert.Equal(t, funding.MsgFundFailed, s.Error)
	assert.Equal(t, before, c.readCount(), "no refresh after failure")
}

func TestFundWithoutAccount(t *testing.T) {
	c := newFakeContract()
	ctrl := funding.NewController(&fakeProvider{}, c)

	_, err := ctrl.Fund(context.Background())
	assert.ErrorIs(t, err, funding.ErrNoAccount)
	assert.Empty(t, c.senders)
	assert.Equal(t, funding.MsgFundFailed, ctrl.Status().Error)
	assert.False(t, ctrl.Status().IsLoading)
}

func TestWithdrawFailure(t *testing.T) {
	p := &fakeProvider{accounts: []string{funderAccount}}
	c := newFakeContract()
	c.sendErr = errors.New("execution reverted")
	ctrl := funding.NewController(p, c)
	require.NoError(t, ctrl.CheckConnection(context.Background()))

	_, err := ctrl.Withdraw(context.Background())
	assert.Error(t, err)
	assert.Equal(t, funding.MsgWithdrawFailed, ctrl.Status().Error)
	assert.False(t, ctrl.Status().IsLoading)
}

func TestWithdrawSuccessClearsPreviousError(t *testing.T) {
	p := &fakeProvider{accounts: []string{ownerAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c)
	require.NoError(t, ctrl.CheckConnection(context.Background()))

	c.balanceErr = errors.New("flaky")
	_ = ctrl.Refresh(context.Background(), ownerAccount)
	require.Equal(t, funding.MsgDataFetch, ctrl.Status().Error)
	c.balanceErr = nil

	_, err := ctrl.Withdraw(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ctrl.Status().Error)
}

// --- Watch ---

func TestAccountsChangedEmptyResets(t *testing.T) {
	p := &fakeProvider{accounts: []string{ownerAccount}}
	ctrl := funding.NewController(p, newFakeContract())
	require.NoError(t, ctrl.CheckConnection(context.Background()))
	require.True(t, ctrl.Status().IsOwner)
	require.NoError(t, ctrl.Watch(context.Background()))

	p.emit([]string{})

	s := ctrl.Status()
	assert.Empty(t, s.Account)
	assert.Equal(t, "0", s.Balance)
	assert.Equal(t, "0", s.Contributed)
	assert.False(t, s.IsOwner)
}

func TestAccountsChangedSwitchesAccount(t *testing.T) {
	p := &fakeProvider{accounts: []string{ownerAccount}}
	c := newFakeContract()
	ctrl := funding.NewController(p, c)
	require.NoError(t, ctrl.CheckConnection(context.Background()))
	require.NoError(t, ctrl.Watch(context.Background()))

	p.emit([]string{funderAccount, ownerAccount})

	s := ctrl.Status()
	assert.Equal(t, funderAccount, s.Account)
	assert.False(t, s.IsOwner)
	assert.Equal(t, "0.1", s.Contributed)
}

func TestWatchIsIdempotentAndCloseUnsubscribes(t *testing.T) {
	p := &fakeProvider{}
	ctrl := funding.NewController(p, newFakeContract())

	require.NoError(t, ctrl.Watch(context.Background()))
	require.NoError(t, ctrl.Watch(context.Background()))
	assert.Len(t, p.handlers, 1)

	require.NoError(t, ctrl.Close())
	assert.Empty(t, p.handlers)
	require.NoError(t, ctrl.Close())

	p.emit([]string{ownerAccount})
	assert.Empty(t, ctrl.Status().Account)
}

func TestObserverOption(t *testing.T) {
	var got []funding.Status
	p := &fakeProvider{accounts: []string{funderAccount}}
	ctrl := funding.NewController(p, newFakeContract(), funding.WithObserver(func(s funding.Status) {
		got = append(got, s)
	}))

	require.NoError(t, ctrl.CheckConnection(context.Background()))
	require.Len(t, got, 2)
	assert.Equal(t, funderAccount, got[0].Account)
	assert.Equal(t, "0", got[0].Balance, "connected before refresh")
	assert.Equal(t, "0.3", got[1].Balance)
}

func TestDefaultFundAmount(t *testing.T) {
	ctrl := funding.NewController(nil, nil)
	assert.Equal(t, big.NewInt(1e17), ctrl.FundAmount())
}
