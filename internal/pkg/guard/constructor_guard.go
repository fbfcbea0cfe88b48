// Package guard implements the constructor guard pattern for domain objects.
// Embedding a ConstructorGuard in a struct makes zero-value instances detectable,
// so domain objects can enforce creation through their designated constructors.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error
// is supplied for an object that was not created through its constructor.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks an object as properly constructed. The zero value
// fails validation, which is how improperly created instances are detected.
//
// Example:
//
//	type Money struct {
//	    amount   int
//	    currency string
//	    guard    ConstructorGuard
//	}
//
//	func NewMoney(amount int, currency string) Money {
//	    return Money{amount: amount, currency: currency, guard: NewConstructorGuard()}
//	}
//
//	func (m Money) Validate() error {
//	    return m.guard.Validate(ErrMoneyNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard marking its owner as properly constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a properly constructed guard. For a zero-value guard
// it returns validationError, or ErrDefaultConstructorGuard when that is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
