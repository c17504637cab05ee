package search

import (
	"errors"
	"fmt"
)

// Budget counts fitness evaluations and enforces an upper limit.
//
// Each search run owns its own Budget. A limit of 0 means unlimited.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget allowing limit evaluations.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Spend records one evaluation. It returns a *BudgetExhaustedError once
// the limit is already used up; the failed call is not counted.
func (b *Budget) Spend() error {
	if b.limit > 0 && b.used >= b.limit {
		return &BudgetExhaustedError{Used: b.used, Limit: b.limit}
	}
	b.used++
	return nil
}

// Used returns the number of evaluations spent so far.
func (b *Budget) Used() int {
	return b.used
}

// Limit returns the configured limit, 0 for unlimited.
func (b *Budget) Limit() int {
	return b.limit
}

// BudgetExhaustedError is returned by Budget.Spend when no evaluations are
// left. Search loops treat it as a normal stop, not a failure.
type BudgetExhaustedError struct {
	Used  int
	Limit int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("evaluation budget exhausted: %d of %d used", e.Used, e.Limit)
}

// IsBudgetExhausted reports whether err is a *BudgetExhaustedError.
func IsBudgetExhausted(err error) bool {
	var be *BudgetExhaustedError
	return errors.As(err, &be)
}
