package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/smartfund/internal/funding"
)

// FundingActions runs controller handlers for the funding screen. Each call
// blocks until the handler finishes; the screen runs them as tea.Cmds.
type FundingActions interface {
	CheckConnection() error
	Connect() error
	Refresh() error
	Fund() error
	Withdraw() error
	NextWallet() (string, error)
	Disconnect() error
}

// FundingInfo is the static header of the funding screen.
type FundingInfo struct {
	Network    string
	Contract   string
	FundAmount string // decimal, e.g. "0.1"
	Currency   string
}

// StatusMsg carries a new controller Status into the program. Send it from a
// controller observer with tea.Program.Send.
type StatusMsg funding.Status

type actionDoneMsg struct {
	flash string
}

type fundingTickMsg struct{}

// FundingModel is the Bubble Tea model for the interactive funding screen.
type FundingModel struct {
	info    FundingInfo
	actions FundingActions
	status  funding.Status

	busy     bool // a handler is running
	frame    int
	flash    string
	quitting bool
}

// NewFundingModel creates the funding screen.
func NewFundingModel(info FundingInfo, initial funding.Status, actions FundingActions) FundingModel {
	if info.Currency == "" {
		info.Currency = "ETH"
	}
	return FundingModel{info: info, actions: actions, status: initial}
}

// Status returns the last Status the model rendered.
func (m FundingModel) Status() funding.Status { return m.status }

func (m FundingModel) Init() tea.Cmd {
	return tea.Batch(m.run(m.actions.CheckConnection, ""), fundingTick())
}

func (m FundingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case StatusMsg:
		m.status = funding.Status(msg)

	case actionDoneMsg:
		m.busy = false
		m.flash = msg.flash

	case fundingTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, fundingTick()
	}
	return m, nil
}

func (m FundingModel) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "q" || key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	var cmd tea.Cmd
	switch key {
	case "c":
		if !m.status.Connected() {
			cmd = m.run(m.actions.Connect, "")
		}
	case "r":
		if m.status.Connected() {
			cmd = m.run(m.actions.Refresh, "Refreshed")
		}
	case "f":
		if m.status.Connected() && !m.status.IsLoading {
			cmd = m.run(m.actions.Fund, fmt.Sprintf("Funded %s %s", m.info.FundAmount, m.info.Currency))
		}
	case "w":
		if m.status.IsOwner && !m.status.IsLoading {
			cmd = m.run(m.actions.Withdraw, "Withdrawn")
		}
	case "s":
		cmd = func() tea.Msg {
			name, err := m.actions.NextWallet()
			if err != nil {
				return actionDoneMsg{flash: "No other wallet to switch to"}
			}
			return actionDoneMsg{flash: "Switched to " + name}
		}
	case "d":
		if m.status.Connected() {
			cmd = m.run(m.actions.Disconnect, "Disconnected")
		}
	}
	if cmd == nil {
		return m, nil
	}
	m.busy = true
	m.flash = ""
	return m, cmd
}

// run wraps a handler; errors are already reflected in Status, so only
// success carries a flash.
func (m FundingModel) run(fn func() error, okFlash string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return actionDoneMsg{}
		}
		return actionDoneMsg{flash: okFlash}
	}
}

func (m FundingModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("💸 SmartFund · "+m.info.Network) + "\n")
	sb.WriteString(Meta("contract ") + Addr(m.info.Contract) + "\n\n")

	if m.status.Error != "" {
		sb.WriteString(StyleErrorBanner.Render(m.status.Error) + "\n\n")
	}

	if !m.status.Connected() {
		sb.WriteString(Meta("  Wallet not connected") + "\n")
	} else {
		role := "funder"
		if m.status.IsOwner {
			role = StyleSuccess.Render("owner")
		}
		sb.WriteString(KeyValueBlock("", [][2]string{
			{"Account", m.status.ShortAccount()},
			{"Contract balance", m.status.Balance + " " + m.info.Currency},
			{"Your contribution", m.status.Contributed + " " + m.info.Currency},
			{"Role", role},
		}) + "\n")
	}

	if m.status.IsLoading {
		sb.WriteString("\n" + StyleChain.Render(spinnerFrames[m.frame]) + " " + StyleWarning.Render("Processing...") + "\n")
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(Success(m.flash) + "\n")
	}
	sb.WriteString(m.controls() + "\n")
	return sb.String()
}

func (m FundingModel) controls() string {
	var keys []string
	if !m.status.Connected() {
		keys = append(keys, StyleInfo.Render("[ c ]")+Meta(" connect"))
	} else {
		keys = append(keys, StyleSuccess.Render("[ f ]")+Meta(" fund "+m.info.FundAmount+" "+m.info.Currency))
		if m.status.IsOwner {
			keys = append(keys, StyleWarning.Render("[ w ]")+Meta(" withdraw"))
		}
		keys = append(keys,
			Meta("[ r ] refresh"),
			Meta("[ d ] disconnect"))
	}
	keys = append(keys, Meta("[ s ] switch wallet"), Meta("[ q ] quit"))
	return strings.Join(keys, Meta("   "))
}

func fundingTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return fundingTickMsg{}
	})
}
