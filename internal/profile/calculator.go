// Package profile turns raw form values into a models.UserProfile.
package profile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"retirement_planner/internal/models"
)

// DefaultName is used when the form leaves the name blank.
const DefaultName = "User"

// MaxAge bounds both age fields. It also bounds the projection loop.
const MaxAge = 150

// Form is the read side of submitted form values. url.Values satisfies it.
type Form interface {
	Get(key string) string
}

// ValidationError reports the first form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type numericField struct {
	name  string
	label string
	isAge bool
}

// Fields are validated in this order and the first failure wins.
var numericFields = []numericField{
	{"current_age", "Current age", true},
	{"target_age", "Target age", true},
	{"income", "Annual after-tax income", false},
	{"total_debt", "Total debt", false},
	{"avg_debt_rate", "Average debt interest rate", false},
	{"assets", "Total financial assets", false},
	{"monthly_savings", "Monthly savings", false},
}

var growthRates = map[string]float64{
	models.RiskConservative: 0.03,
	models.RiskModerate:     0.06,
	models.RiskAggressive:   0.08,
}

// GrowthRate returns the assumed annual growth for a risk appetite.
func GrowthRate(risk string) (float64, bool) {
	rate, ok := growthRates[risk]
	return rate, ok
}

// ParseAmount strips thousands separators and surrounding whitespace and
// parses the remainder as a float.
func ParseAmount(raw, label string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, &ValidationError{Message: label + " is required."}
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Message: label + " must be a number."}
	}
	return v, nil
}

// Build validates the form and derives the profile.
// The returned error is always a *ValidationError.
func Build(form Form) (models.UserProfile, error) {
	values := make(map[string]float64, len(numericFields))
	for _, f := range numericFields {
		v, err := ParseAmount(form.Get(f.name), f.label)
		if err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				vErr.Field = f.name
			}
			return models.UserProfile{}, err
		}
		if f.isAge && (v < 0 || v > MaxAge) {
			return models.UserProfile{}, &ValidationError{
				Field:   f.name,
				Message: fmt.Sprintf("%s must be between 0 and %d.", f.label, MaxAge),
			}
		}
		values[f.name] = v
	}

	risk := form.Get("risk")
	if risk == "" {
		risk = models.RiskModerate
	}
	risk = strings.ToLower(risk)
	rate, ok := GrowthRate(risk)
	if !ok {
		return models.UserProfile{}, &ValidationError{
			Field:   "risk",
			Message: "Please choose a valid risk appetite option.",
		}
	}

	name := strings.TrimSpace(form.Get("name"))
	if name == "" {
		name = DefaultName
	}

	p := models.UserProfile{
		Name:               name,
		CurrentAge:         values["current_age"],
		TargetAge:          values["target_age"],
		AnnualIncome:       values["income"],
		TotalDebt:          values["total_debt"],
		AvgDebtRatePercent: values["avg_debt_rate"],
		TotalAssets:        values["assets"],
		MonthlySavings:     values["monthly_savings"],
		RiskAppetite:       risk,
		GrowthRateAssumed:  rate,
	}

	p.YearsToGoal = math.Max(p.TargetAge-p.CurrentAge, 0)
	p.NetWorth = p.TotalAssets - p.TotalDebt
	p.YearlySavings = p.MonthlySavings * 12
	if p.AnnualIncome > 0 {
		ratio := p.TotalDebt / p.AnnualIncome
		p.DebtToIncomeRatio = &ratio
	}
	p.ProjectedNetWorthAtGoal = Project(p.NetWorth, p.YearlySavings, rate, p.YearsToGoal)

	return p, nil
}

// Project compounds start annually, adding the yearly contribution before
// growth is applied. Fractional years are dropped.
func Project(start, yearlySavings, rate, years float64) float64 {
	value := start
	for i := 0; i < int(years); i++ {
		value = (value + yearlySavings) * (1 + rate)
	}
	return value
}
