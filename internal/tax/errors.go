package tax

import "fmt"

// MissingAmountError is returned when neither a base amount nor a positive
// hours × rate pair is available.
type MissingAmountError struct {
	Country string
}

func (e *MissingAmountError) Error() string {
	return fmt.Sprintf("missing amount for %s invoice: provide a positive base amount or both hours and rate", e.Country)
}
