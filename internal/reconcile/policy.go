package reconcile

import (
	"errors"
	"fmt"
)

// FirstMatch tries providers in priority order and stops at the first whose
// attempt reports data. Provider errors count as empty; they are joined and
// returned next to the winner ("" when nobody had data).
func FirstMatch(order []string, attempt func(provider string) (bool, error)) (string, error) {
	var errs []error
	for _, p := range order {
		ok, err := attempt(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if ok {
			return p, errors.Join(errs...)
		}
	}
	return "", errors.Join(errs...)
}
