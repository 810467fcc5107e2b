package dispatch

import "errors"

// Command rejections. Every rejection leaves the cart pool and the queue
// untouched; callers match them with errors.Is.
var (
	ErrNoAvailableCart   = errors.New("no idle cart available")
	ErrInvalidCoordinate = errors.New("coordinate outside grid bounds")
	ErrUnknownCart       = errors.New("unknown cart")
	ErrCartBusy          = errors.New("cart busy")
	ErrMissingSelection  = errors.New("cart and target coordinates are required")
	ErrEmptyCatalog      = errors.New("pickup or dropoff catalog is empty")
)

// Reason maps a rejection to a short label used for metrics and journals.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAvailableCart):
		return "no_available_cart"
	case errors.Is(err, ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, ErrUnknownCart):
		return "unknown_cart"
	case errors.Is(err, ErrCartBusy):
		return "cart_busy"
	case errors.Is(err, ErrMissingSelection):
		return "missing_selection"
	case errors.Is(err, ErrEmptyCatalog):
		return "empty_catalog"
	default:
		return "other"
	}
}
