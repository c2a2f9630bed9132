package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/smartfund/internal/contract"
	"github.com/Mohsinsiddi/smartfund/internal/ui"
)

var abiCmd = &cobra.Command{
	Use:   "abi [id]",
	Short: "Show the built-in contract ABIs",
	Long: `List the contract functions smartfund knows about, with their
4-byte selectors. Pass an id to show a single contract.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := contract.AllBuiltins()
		if len(args) > 0 {
			b, ok := contract.GetBuiltin(args[0])
			if !ok {
				return fmt.Errorf("unknown contract %q", args[0])
			}
			kinds = []contract.BuiltinKind{b}
		}

		for _, b := range kinds {
			parsed, err := b.Parse()
			if err != nil {
				return err
			}
			fmt.Println(ui.StyleTitle.Render(b.Name) + "  " + ui.Meta(b.Description))

			t := ui.NewTable([]ui.Column{
				{Title: "Function", Width: 36},
				{Title: "Selector", Width: 12},
				{Title: "Kind", Width: 12},
			})
			for _, e := range b.ABI {
				if e.Type != "function" {
					continue
				}
				kind := ui.Meta(e.StateMutability)
				if e.IsWriteFunction() {
					kind = ui.StyleWarning.Render(e.StateMutability)
				}
				t.AddRow(ui.Row{e.Signature(), hexutil.Encode(parsed.Methods[e.Name].ID), kind})
			}
			fmt.Println(t.Render())
		}
		return nil
	},
}
