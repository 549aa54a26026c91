package planning

import (
	"math"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
)

// BudgetRule is a target split of income into needs, wants and savings,
// each a percentage of 100.
type BudgetRule struct {
	NeedsTarget   float64
	WantsTarget   float64
	SavingsTarget float64
}

// Rule503020 is the classic 50/30/20 budget split.
var Rule503020 = BudgetRule{NeedsTarget: 50, WantsTarget: 30, SavingsTarget: 20}

// Variance returns planned minus actual per category, over the planned
// set: a planned category missing from actual counts as zero actual, and
// categories present only in actual are ignored.
func Variance(planned, actual map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(planned))
	for category, plannedAmount := range planned {
		out[category] = plannedAmount - actual[category]
	}
	return out
}

// HealthScore condenses a monthly breakdown into a 0-100 score: the
// equal-weight average of income achievement, expense control and savings
// achievement.
//
// Income and savings score min(actual/planned, 1)*100, with 100 when
// nothing was planned. Expense control is 100 at or under plan and decays
// linearly to 0 at twice the planned spend.
func HealthScore(b core.MonthlyBreakdown) float64 {
	income := attainmentScore(b.ActualIncome, b.PlannedIncome)
	savings := attainmentScore(b.ActualSavings, b.PlannedSavings)
	expenses := expenseControlScore(b.ActualExpenses, b.PlannedExpenses)
	return (income + savings + expenses) / 3
}

func attainmentScore(actual, planned float64) float64 {
	if planned <= 0 {
		return 100
	}
	ratio := actual / planned
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return ratio * 100
}

func expenseControlScore(actual, planned float64) float64 {
	if actual <= planned {
		return 100
	}
	if planned <= 0 {
		// Any spend against a zero budget is full overshoot.
		return 0
	}
	overshoot := actual/planned - 1 // 0 at plan, 1 at double
	score := 100 * (1 - overshoot)
	if score < 0 {
		score = 0
	}
	return score
}

// RuleAdherence scores how closely an actual needs/wants/savings split
// matches a budget rule: 100 minus twice the mean absolute deviation,
// floored at 0.
func RuleAdherence(needsPct, wantsPct, savingsPct float64, rule BudgetRule) float64 {
	avg := (math.Abs(needsPct-rule.NeedsTarget) +
		math.Abs(wantsPct-rule.WantsTarget) +
		math.Abs(savingsPct-rule.SavingsTarget)) / 3
	score := 100 - 2*avg
	if score < 0 {
		score = 0
	}
	return score
}
