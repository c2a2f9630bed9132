// Package funding holds the wallet/contract controller: a flat status record
// and the handlers that move it between states.
package funding

// Status is the user-visible state of the funding session. It is never
// persisted; every field is rebuilt from live reads.
type Status struct {
	Account     string // connected address, "" when disconnected
	Balance     string // contract balance in decimal ETH
	IsOwner     bool
	Contributed string // Account's cumulative contribution in decimal ETH
	IsLoading   bool   // a fund or withdraw transaction is in flight
	Error       string // last user-visible error, or ""
}

// Initial returns the disconnected defaults.
func Initial() Status {
	return Status{Balance: "0", Contributed: "0"}
}

// Connected reports whether an account is set.
func (s Status) Connected() bool {
	return s.Account != ""
}

// ShortAccount renders the account as 0x1234...abcd.
func (s Status) ShortAccount() string {
	if len(s.Account) <= 10 {
		return s.Account
	}
	return s.Account[:6] + "..." + s.Account[len(s.Account)-4:]
}
