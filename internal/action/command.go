package action

import (
	"fmt"

	"stop_guard/internal/protect"
)

// DefaultCLI is the order management command used in printed commands.
const DefaultCLI = "apcacli"

// Command renders an actionable decision as a ready-to-run command line
// for cli. It returns false for decisions that need no action.
func Command(cli string, d protect.Decision) (string, bool) {
	if cli == "" {
		cli = DefaultCLI
	}

	switch d.Kind {
	case protect.AmendOrder:
		return fmt.Sprintf("%s order change %s --quantity %s --limit-price %s --stop-price %s",
			cli, d.OrderID, d.Quantity, fixed(d.LimitPrice), fixed(d.StopPrice)), true
	case protect.SubmitNewOrder:
		return fmt.Sprintf("%s order submit %s %s --quantity %s --limit-price %s --stop-price %s",
			cli, d.Side, d.Symbol, d.Quantity, fixed(d.LimitPrice), fixed(d.StopPrice)), true
	}
	return "", false
}
