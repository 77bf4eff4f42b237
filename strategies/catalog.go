// Package strategies implements the built-in simulation strategies for the
// standard brick kinds: cash, property, ETF holdings, annuity mortgages,
// recurring and one-time flows, and internal transfers.
package strategies

import "github.com/finbricklab/finbrick"

// DefaultCatalog returns a catalog with every built-in kind registered.
func DefaultCatalog() *finbrick.Catalog {
	return finbrick.NewCatalog().
		Register(finbrick.KindCash, &Cash{}).
		Register(finbrick.KindProperty, &Property{}).
		Register(finbrick.KindETF, &ETF{}).
		Register(finbrick.KindMortgageAnnuity, &MortgageAnnuity{}).
		Register(finbrick.KindIncomeRecurring, &IncomeRecurring{}).
		Register(finbrick.KindIncomeOnetime, &IncomeOnetime{}).
		Register(finbrick.KindExpenseRecurring, &ExpenseRecurring{}).
		Register(finbrick.KindExpenseOnetime, &ExpenseOnetime{}).
		Register(finbrick.KindTransferLumpSum, &TransferLumpSum{}).
		Register(finbrick.KindTransferRecurring, &TransferRecurring{})
}

// firstActive returns the index of the first true value in the mask, or -1.
func firstActive(mask []bool) int {
	for i, active := range mask {
		if active {
			return i
		}
	}
	return -1
}

// lastActive returns the index of the last true value in the mask, or -1.
func lastActive(mask []bool) int {
	for i := len(mask) - 1; i >= 0; i-- {
		if mask[i] {
			return i
		}
	}
	return -1
}
