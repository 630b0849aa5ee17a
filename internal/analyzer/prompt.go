package analyzer

import (
	"fmt"
	"strings"
	"time"

	"FraudSentinel/internal/model"
)

// BuildPrompt renders a snapshot into the model prompt. The output is a pure
// function of the snapshot: the same snapshot always yields a byte-identical
// prompt, which keeps the pipeline testable independent of the model.
func BuildPrompt(snap *model.AccountSnapshot) string {
	var b strings.Builder

	b.WriteString("You are a fraud detection analyst for a retail bank.\n")
	b.WriteString("Analyze the following account activity for fraud patterns: unusually large\n")
	b.WriteString("transfers, negative or drained balances, high transaction velocity, and\n")
	b.WriteString("inflows from unfamiliar external routing numbers.\n\n")

	fmt.Fprintf(&b, "Account: %s\n", snap.AccountID)
	fmt.Fprintf(&b, "Current balance: %s\n", formatAmount(snap.Balance))
	fmt.Fprintf(&b, "Recent transactions (most recent first, %d shown):\n", len(snap.Transactions))
	if len(snap.Transactions) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, tx := range snap.Transactions {
		fmt.Fprintf(&b, "  %2d. %s  amount %s  %s -> %s  routing %s -> %s\n",
			i+1,
			tx.Timestamp.UTC().Format(time.RFC3339),
			formatAmount(tx.SignedAmount(snap.AccountID)),
			tx.FromAccountID, tx.ToAccountID,
			tx.FromRouting, tx.ToRouting)
	}

	b.WriteString("\nRespond with STRICT JSON only. No markdown fences, no commentary, no\n")
	b.WriteString("trailing text. The object must have exactly these fields:\n")
	b.WriteString(`{"risk_category": "LOW|MEDIUM|HIGH", "risk_score": 0.0, "rationale": "...", "indicators": ["..."], "recommended_actions": ["..."]}` + "\n")

	return b.String()
}

// formatAmount renders minor currency units as a fixed-point decimal string.
func formatAmount(units int64) string {
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}
