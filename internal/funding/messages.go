package funding

import "fmt"

// User-facing error messages. Underlying causes go to the log only.
const (
	MsgWalletMissing   = "Please add a wallet first (smartfund wallet add)!"
	MsgConnectionCheck = "Error checking wallet connection"
	MsgConnect         = "Error connecting wallet"
	MsgDataFetch       = "Error fetching contract data"
	MsgFundFailed      = "Transaction failed. Make sure you have enough ETH!"
	MsgWithdrawFailed  = "Withdrawal failed. Are you the contract owner?"
)

// SwitchNetworkMessage asks the user to move to the named network.
func SwitchNetworkMessage(chainName string) string {
	return fmt.Sprintf("Please switch to %s network in your wallet", chainName)
}
