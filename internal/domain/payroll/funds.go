package payroll

// DefaultTopUpStep rounds suggested top-ups to whole thousands of minor units.
const DefaultTopUpStep int64 = 1000

// FundsCheck is the outcome of the funds-sufficiency gate.
type FundsCheck struct {
	Remaining      int64 `json:"remaining"`
	Balance        int64 `json:"balance"`
	Sufficient     bool  `json:"sufficient"`
	Shortfall      int64 `json:"shortfall"`
	SuggestedTopUp int64 `json:"suggested_top_up"`
}

// CheckFunds compares the undisbursed part of a batch with the funding
// account balance. On a shortfall the suggested top-up is the shortfall
// rounded up to the next multiple of step.
func CheckFunds(totalAmount, executedAmount, balance, step int64) FundsCheck {
	remaining := totalAmount - executedAmount
	if remaining < 0 {
		remaining = 0
	}

	check := FundsCheck{
		Remaining: remaining,
		Balance:   balance,
	}
	if remaining <= balance {
		check.Sufficient = true
		return check
	}

	check.Shortfall = remaining - balance
	check.SuggestedTopUp = roundUp(check.Shortfall, step)
	return check
}

func roundUp(amount, step int64) int64 {
	if step <= 0 {
		return amount
	}
	if rem := amount % step; rem != 0 {
		return amount + step - rem
	}
	return amount
}
