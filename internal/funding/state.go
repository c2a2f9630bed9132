package funding

// Event is a state transition input for Reduce.
type Event interface {
	isEvent()
}

// Connected sets the active account.
type Connected struct{ Addr string }

// Disconnected clears the account and its derived fields. Error and
// IsLoading are left alone.
type Disconnected struct{}

// Refreshed replaces the contract-derived fields together.
type Refreshed struct {
	Balance     string
	Contributed string
	IsOwner     bool
}

// TxStarted marks a transaction in flight and clears the previous error.
type TxStarted struct{}

// TxSucceeded ends the in-flight transaction.
type TxSucceeded struct{}

// TxFailed ends the in-flight transaction with a user-visible message.
type TxFailed struct{ Msg string }

// Failed sets a user-visible error without touching anything else.
type Failed struct{ Msg string }

func (Connected) isEvent()    {}
func (Disconnected) isEvent() {}
func (Refreshed) isEvent()    {}
func (TxStarted) isEvent()    {}
func (TxSucceeded) isEvent()  {}
func (TxFailed) isEvent()     {}
func (Failed) isEvent()       {}

// Reduce applies ev to prev and returns the next status.
func Reduce(prev Status, ev Event) Status {
	next := prev
	switch e := ev.(type) {
	case Connected:
		next.Account = e.Addr
	case Disconnected:
		next.Account = ""
		next.Balance = "0"
		next.Contributed = "0"
		next.IsOwner = false
	case Refreshed:
		next.Balance = e.Balance
		next.Contributed = e.Contributed
		next.IsOwner = e.IsOwner
	case TxStarted:
		next.IsLoading = true
		next.Error = ""
	case TxSucceeded:
		next.IsLoading = false
	case TxFailed:
		next.IsLoading = false
		next.Error = e.Msg
	case Failed:
		next.Error = e.Msg
	}
	return next
}
