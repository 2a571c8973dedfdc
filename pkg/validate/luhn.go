package validate

import (
	"github.com/ShiraazMoollatjie/goluhn"
)

const maxOrderNumberLen = 32

// IsOrderNumber reports whether s looks like a provider order number: digits
// only, a sane length and a valid Luhn check digit.
func IsOrderNumber(s string) bool {
	if len(s) == 0 || len(s) > maxOrderNumberLen {
		return false
	}
	return goluhn.Validate(s) == nil
}
