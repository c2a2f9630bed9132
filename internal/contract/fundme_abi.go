package contract

// FundMeID is the built-in ID of the funding contract.
const FundMeID = "fundme"

func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          FundMeID,
		Name:        "FundMe",
		Description: "Crowdfunding contract: anyone funds, the owner withdraws.",
		ABI:         fundMeABI,
	})
}

var fundMeABI = []ABIEntry{
	// ── Read ─────────────────────────────────────────────────────────────────
	{
		Name: "getAddressToAmountFunded", Type: "function",
		Inputs:          []ABIParam{{Name: "fundingAddress", Type: "address"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "getOwner", Type: "function",
		Inputs: []ABIParam{}, Outputs: []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "view",
	},
	// ── Write ────────────────────────────────────────────────────────────────
	{
		Name: "fund", Type: "function",
		Inputs: []ABIParam{}, Outputs: []ABIParam{},
		StateMutability: "payable",
	},
	{
		Name: "withdraw", Type: "function",
		Inputs: []ABIParam{}, Outputs: []ABIParam{},
		StateMutability: "nonpayable",
	},
}
