package watcher

import (
	"fmt"
	"strings"

	"stop_guard/internal/protect"
	"stop_guard/internal/storage"
)

// Summary formats a pass report as a Telegram message. Passes without
// actions or errors produce no message.
func Summary(r *storage.Report) (string, bool) {
	var lines []string
	for _, e := range r.Entries {
		if line, ok := summaryLine(e, r.Applied); ok {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", false
	}

	mode := "DRY RUN"
	if r.Applied {
		mode = "APPLIED"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛡️ *STOP GUARD* [%s]\n", mode))
	sb.WriteString(fmt.Sprintf("Positions: %d | Open orders: %d\n\n", r.Positions, r.Orders))
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String(), true
}

func summaryLine(e storage.Entry, applied bool) (string, bool) {
	prices := func() string {
		if e.StopPrice == nil || e.LimitPrice == nil {
			return ""
		}
		return fmt.Sprintf(" | stop $%s / limit $%s",
			e.StopPrice.StringFixed(protect.PriceDecimals), e.LimitPrice.StringFixed(protect.PriceDecimals))
	}

	icon := "📝"
	if applied {
		icon = "✅"
	}
	if e.Error != "" {
		icon = "⚠️"
	}

	switch e.Action {
	case protect.SubmitNewOrder.String():
		line := fmt.Sprintf("%s %s: new stop-loss for %s shares%s", icon, e.Symbol, e.Quantity, prices())
		return withError(line, e.Error), true
	case protect.AmendOrder.String():
		line := fmt.Sprintf("%s %s: amend order `%s` to %s shares%s", icon, e.Symbol, e.OrderID, e.Quantity, prices())
		return withError(line, e.Error), true
	case protect.Rejected.String():
		return fmt.Sprintf("%s %s: %s", icon, e.Symbol, e.Error), true
	}
	return "", false
}

func withError(line, err string) string {
	if err == "" {
		return line
	}
	return line + "\n      ↳ " + err
}
