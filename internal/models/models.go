package models

// Risk appetite values accepted from the form.
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// UserProfile is the derived financial picture for one form submission.
//
// It is built once by the profile package and never mutated afterwards.
// DebtToIncomeRatio is nil when the annual income is zero or negative.
type UserProfile struct {
	Name                    string   `json:"name"`
	CurrentAge              float64  `json:"current_age"`
	TargetAge               float64  `json:"target_age"`
	YearsToGoal             float64  `json:"years_to_goal"`
	AnnualIncome            float64  `json:"annual_income"`
	TotalDebt               float64  `json:"total_debt"`
	AvgDebtRatePercent      float64  `json:"avg_debt_rate_percent"`
	TotalAssets             float64  `json:"total_assets"`
	MonthlySavings          float64  `json:"monthly_savings"`
	YearlySavings           float64  `json:"yearly_savings"`
	NetWorth                float64  `json:"net_worth"`
	RiskAppetite            string   `json:"risk_appetite"`
	GrowthRateAssumed       float64  `json:"growth_rate_assumed"`
	ProjectedNetWorthAtGoal float64  `json:"projected_net_worth_at_goal"`
	DebtToIncomeRatio       *float64 `json:"debt_to_income_ratio,omitempty"`
}
