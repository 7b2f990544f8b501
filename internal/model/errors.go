package model

import "errors"

// Domain errors. Handlers map them onto HTTP status codes with errors.Is;
// anything that is not one of these is treated as an internal failure.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrGuestNotFound        = errors.New("guest not found")
	ErrSettingNotFound      = errors.New("setting not found")
	ErrTaskNotFound         = errors.New("housekeeping task not found")
	ErrMaintenanceNotFound  = errors.New("maintenance request not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")

	ErrRoomUnavailable     = errors.New("room is not available for the requested dates")
	ErrInvalidDateRange    = errors.New("check-out date must be after check-in date")
	ErrInvalidTransition   = errors.New("booking status transition not allowed")
	ErrDuplicateRoomNumber = errors.New("room number already exists")
	ErrEmailExists         = errors.New("email already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrInvalidInput        = errors.New("invalid input")
)

// notFound groups every "entity absent" error.
var notFound = []error{
	ErrRoomNotFound, ErrBookingNotFound, ErrUserNotFound, ErrGuestNotFound,
	ErrSettingNotFound, ErrTaskNotFound, ErrMaintenanceNotFound,
	ErrNotificationNotFound, ErrInvoiceNotFound,
}

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			return true
		}
	}
	return false
}
