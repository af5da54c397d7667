// Package report renders wealth summaries as Markdown for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"wealthbook/internal/services"
)

// FormatMoney formats amount in currency with the currency's grapheme and
// separators. Unknown currencies fall back to "<amount> <code>".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}

// FormatPercent formats p, already in percent, with a sign.
func FormatPercent(p decimal.Decimal) string {
	s := p.StringFixed(2) + "%"
	if p.IsPositive() {
		return "+" + s
	}
	return s
}

// PortfolioLine is one portfolio row of a report.
type PortfolioLine struct {
	Name    string
	Summary *services.PortfolioSummary
}

// Report is the wealth picture of one date.
type Report struct {
	Currency   string
	Breakdown  *services.WealthBreakdown
	YoY        *services.YoYChange
	Portfolios []PortfolioLine
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	cur := r.Currency
	if cur == "" {
		cur = "HUF"
	}
	bd := r.Breakdown

	fmt.Fprintf(&b, "# Wealth on %s\n\n", bd.SnapshotDate)
	fmt.Fprintf(&b, "**Net wealth: %s**\n\n", FormatMoney(bd.NetWealthHUF, cur))

	b.WriteString("| Component | Value |\n|---|---:|\n")
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Portfolios", bd.PortfolioValueHUF},
		{"Cash", bd.CashHUF},
		{"Property", bd.PropertyHUF},
		{"Pension", bd.PensionHUF},
		{"Other", bd.OtherHUF},
		{"Liabilities", bd.TotalLiabilitiesHUF.Neg()},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row.label, FormatMoney(row.value, cur))
	}

	if len(r.Portfolios) > 0 {
		b.WriteString("\n## Portfolios\n\n| Portfolio | Positions | Value |\n|---|---:|---:|\n")
		for _, p := range r.Portfolios {
			if p.Summary == nil {
				fmt.Fprintf(&b, "| %s | - | not valued |\n", p.Name)
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s |\n", p.Name, p.Summary.Positions, FormatMoney(p.Summary.TotalHUF, cur))
		}
	}

	if len(bd.Items) > 0 {
		b.WriteString("\n## Items\n\n| Category | Type | Value |\n|---|---|---:|\n")
		for _, item := range bd.Items {
			name := item.CategoryName
			if item.IsLiability {
				name += " (liability)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, item.CategoryType, FormatMoney(item.PresentValue, item.Currency))
		}
	}

	if r.YoY != nil {
		b.WriteString("\n## Year over year\n\n")
		if r.YoY.PreviousDate == nil || r.YoY.Change == nil {
			b.WriteString("No snapshot a year earlier.\n")
		} else {
			fmt.Fprintf(&b, "Compared with %s (%s): %s",
				*r.YoY.PreviousDate, FormatMoney(*r.YoY.PreviousWealth, cur), signed(FormatMoney(*r.YoY.Change, cur), *r.YoY.Change))
			if r.YoY.Percentage != nil {
				fmt.Fprintf(&b, " (%s)", FormatPercent(*r.YoY.Percentage))
			}
			b.WriteString("\n")
		}
	}

	if res := bd.Result; res != nil && len(res.Issues) > 0 {
		b.WriteString("\n## Issues\n\n")
		for _, issue := range res.Issues {
			fmt.Fprintf(&b, "- `%s` %s: %s\n", issue.Code, issue.Key, issue.Reason)
		}
	}

	return b.String()
}

func signed(s string, d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// Render renders Markdown for a terminal. style is a glamour standard style
// ("dark", "light", "notty", ...); empty picks one from the terminal.
func Render(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}
