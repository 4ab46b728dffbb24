package repository

import (
	"errors"
	"fmt"

	"github.com/servicesartisans/booking/internal/domain"
)

// storeErr tags unexpected store failures as transient so callers can
// classify them with errors.Is and retry with backoff.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}
