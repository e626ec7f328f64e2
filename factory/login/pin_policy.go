package login

import (
	"fmt"

	"stoneyard/factory/faults"
)

// ValidatePinPolicy accepts PINs of 4 to 12 digits. Operators type
// them on shared floor terminals, so anything beyond digits is more
// friction than security.
func ValidatePinPolicy(pin string) error {
	if len(pin) < 4 || len(pin) > 12 {
		return fmt.Errorf("%w: pin must be 4 to 12 digits", faults.ErrInvalidArgument)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: pin must contain digits only", faults.ErrInvalidArgument)
		}
	}
	return nil
}
