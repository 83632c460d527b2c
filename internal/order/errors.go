package order

import "errors"

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrEmptyCart          = errors.New("empty cart")          // 400
	ErrProductUnavailable = errors.New("product unavailable") // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrInsufficientStock  = errors.New("insufficient stock")  // 409
	ErrAlreadyCancelled   = errors.New("already cancelled")   // 409
	ErrNotCancellable     = errors.New("not cancellable")     // 409
	ErrTransactionFailed  = errors.New("transaction failed")  // 502, retryable
)

var domainErrs = []error{
	ErrValidation, ErrEmptyCart, ErrProductUnavailable, ErrNotFound,
	ErrForbidden, ErrInsufficientStock, ErrAlreadyCancelled, ErrNotCancellable,
	ErrTransactionFailed,
}

func isDomainErr(err error) bool {
	for _, d := range domainErrs {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}
