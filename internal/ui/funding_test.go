package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/smartfund/internal/funding"
)

type fakeActions struct {
	calls []string
	err   error
}

func (a *fakeActions) record(name string) error {
	a.calls = append(a.calls, name)
	return a.err
}

func (a *fakeActions) CheckConnection() error { return a.record("check") }
func (a *fakeActions) Connect() error         { return a.record("connect") }
func (a *fakeActions) Refresh() error         { return a.record("refresh") }
func (a *fakeActions) Fund() error            { return a.record("fund") }
func (a *fakeActions) Withdraw() error        { return a.record("withdraw") }
func (a *fakeActions) Disconnect() error      { return a.record("disconnect") }
func (a *fakeActions) NextWallet() (string, error) {
	return "bob", a.record("next")
}

var info = FundingInfo{Network: "Sepolia", Contract: "0xD35Fe7A33565f411dbC14F9A4aba083D18AFEa46", FundAmount: "0.1"}

func connectedStatus(owner bool) funding.Status {
	s := funding.Initial()
	s.Account = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	s.Balance = "0.3"
	s.Contributed = "0.1"
	s.IsOwner = owner
	return s
}

func press(t *testing.T, m FundingModel, key string) (FundingModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(FundingModel), cmd
}

// finish runs cmd and feeds its message back, as the program would.
func finish(t *testing.T, m FundingModel, cmd tea.Cmd) FundingModel {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(FundingModel)
}

func TestConnectKeyWhenDisconnected(t *testing.T) {
	a := &fakeActions{}
	m := NewFundingModel(info, funding.Initial(), a)

	m, cmd := press(t, m, "c")
	assert.True(t, m.busy)
	m = finish(t, m, cmd)

	assert.Equal(t, []string{"connect"}, a.calls)
	assert.False(t, m.busy)
}

func TestFundIgnoredWhileLoading(t *testing.T) {
	a := &fakeActions{}
	s := connectedStatus(false)
	s.IsLoading = true
	m := NewFundingModel(info, s, a)

	_, cmd := press(t, m, "f")
	assert.Nil(t, cmd)
	assert.Empty(t, a.calls)
}

func TestFundFlashesOnSuccess(t *testing.T) {
	a := &fakeActions{}
	m := NewFundingModel(info, connectedStatus(false), a)

	m, cmd := press(t, m, "f")
	m = finish(t, m, cmd)

	assert.Equal(t, []string{"fund"}, a.calls)
	assert.Contains(t, m.View(), "Funded 0.1 ETH")
}

func TestFailedActionHasNoFlash(t *testing.T) {
	a := &fakeActions{err: errors.New("boom")}
	m := NewFundingModel(info, connectedStatus(false), a)

	m, cmd := press(t, m, "f")
	m = finish(t, m, cmd)
	assert.Empty(t, m.flash)
}

func TestWithdrawOnlyForOwner(t *testing.T) {
	a := &fakeActions{}

	_, cmd := press(t, NewFundingModel(info, connectedStatus(false), a), "w")
	assert.Nil(t, cmd)

	m, cmd := press(t, NewFundingModel(info, connectedStatus(true), a), "w")
	finish(t, m, cmd)
	assert.Equal(t, []string{"withdraw"}, a.calls)
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	a := &fakeActions{}
	m := NewFundingModel(info, connectedStatus(true), a)

	m, _ = press(t, m, "r")
	_, cmd := press(t, m, "f")
	assert.Nil(t, cmd)
}

func TestSwitchWallet(t *testing.T) {
	a := &fakeActions{}
	m := NewFundingModel(info, funding.Initial(), a)

	m, cmd := press(t, m, "s")
	m = finish(t, m, cmd)
	assert.Equal(t, "Switched to bob", m.flash)
}

func TestQuit(t *testing.T) {
	m := NewFundingModel(info, funding.Initial(), &fakeActions{})
	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestStatusMsgUpdatesView(t *testing.T) {
	m := NewFundingModel(info, funding.Initial(), &fakeActions{})
	assert.Contains(t, m.View(), "Wallet not connected")

	s := connectedStatus(true)
	s.IsLoading = true
	s.Error = funding.MsgFundFailed
	next, _ := m.Update(StatusMsg(s))
	m = next.(FundingModel)

	view := m.View()
	assert.Contains(t, view, "0xf39F...2266")
	assert.Contains(t, view, "0.3 ETH")
	assert.Contains(t, view, "Processing...")
	assert.Contains(t, view, funding.MsgFundFailed)
	assert.Contains(t, view, "withdraw")
	assert.Equal(t, s, m.Status())
}

func TestInitChecksConnection(t *testing.T) {
	a := &fakeActions{}
	m := NewFundingModel(info, funding.Initial(), a)

	batch, ok := m.Init()().(tea.BatchMsg)
	require.True(t, ok)
	require.NotEmpty(t, batch)
	batch[0]()
	assert.Equal(t, []string{"check"}, a.calls)
}
