// Package summary renders a profile and market snapshot into the text block
// handed to the narrative generator.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"retirement_planner/internal/models"

	"github.com/shopspring/decimal"
)

// Currency formats v as "$1,234.56". Negative values keep the sign after the
// dollar sign ("$-1,234.56"). Rounding is on the exact binary value, so 2.675
// renders as "$2.67".
func Currency(v float64) string {
	return "$" + groupThousands(strconv.FormatFloat(v, 'f', 2, 64))
}

// Fixed2 formats a price or percentage with two decimals, rounded the same
// way as Currency.
func Fixed2(d decimal.Decimal) string {
	return strconv.FormatFloat(d.InexactFloat64(), 'f', 2, 64)
}

// Percent formats v with two decimals and a trailing "%".
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Age renders a float the way the form echoes whole numbers ("30.0").
func Age(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// Format builds the labelled summary. Line order is fixed.
func Format(p models.UserProfile, snap models.MarketSnapshot) string {
	lines := []string{
		"USER FINANCIAL PROFILE:",
		"- Name: " + p.Name,
		"- Current age: " + Age(p.CurrentAge),
		"- Target retirement age: " + Age(p.TargetAge),
		fmt.Sprintf("- Years until goal: %.1f", p.YearsToGoal),
		"- Annual after-tax income: " + Currency(p.AnnualIncome),
		"- Total debt: " + Currency(p.TotalDebt),
		"- Average debt interest rate: " + Percent(p.AvgDebtRatePercent),
		"- Total assets: " + Currency(p.TotalAssets),
		"- Monthly savings: " + Currency(p.MonthlySavings),
		"- Yearly savings: " + Currency(p.YearlySavings),
		"- Net worth (assets - debt): " + Currency(p.NetWorth),
	}

	if p.DebtToIncomeRatio != nil {
		lines = append(lines, fmt.Sprintf("- Debt-to-income ratio: %.2f (total debt / annual income)", *p.DebtToIncomeRatio))
	} else {
		lines = append(lines, "- Debt-to-income ratio: N/A (income is zero or not provided)")
	}

	lines = append(lines,
		"- Risk appetite: "+p.RiskAppetite,
		"- Simple assumed growth rate based on risk: "+Percent(p.GrowthRateAssumed*100),
		"- Rough projected net worth at target age: "+Currency(p.ProjectedNetWorthAtGoal),
		"",
		"MARKET SNAPSHOT (last ~90 days):",
	)

	for _, e := range snap.Entries {
		lines = append(lines, MarketLine(e))
	}

	return strings.Join(lines, "\n")
}

// MarketLine renders one snapshot entry, success or failure.
func MarketLine(e models.SymbolSnapshot) string {
	label := e.Label
	if label == "" {
		label = e.Symbol
	}
	if e.Failed() {
		return fmt.Sprintf("- %s (%s): error fetching data: %s", label, e.Symbol, e.Err)
	}
	return fmt.Sprintf("- %s (%s): %s close=$%s, %s close=$%s, %s%% change over 90 days",
		label, e.Symbol,
		e.StartDate, Fixed2(e.StartPrice),
		e.EndDate, Fixed2(e.EndPrice),
		Fixed2(e.PctChange))
}
