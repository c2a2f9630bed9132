package config

import "time"

// Defaults for the deployed funding contract on Sepolia.
const (
	DefaultChainID         = "0xaa36a7"
	DefaultContractAddress = "0xD35Fe7A33565f411dbC14F9A4aba083D18AFEa46"
	DefaultFundAmount      = "0.1"
)

// GasLimitContractCall is the EstimateGas fallback for fund() and withdraw()
// when the node cannot simulate the call.
const GasLimitContractCall = uint64(200_000)

// Timeout constants used across cmd.
const (
	RPCSelectTimeout    = 10 * time.Second // RPC benchmark / selection
	TxConfirmTimeout    = 3 * time.Minute  // one-shot fund/withdraw confirmation wait
	ReceiptPollInterval = 2 * time.Second
)
