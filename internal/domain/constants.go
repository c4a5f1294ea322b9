package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// PendingBooking lifecycle. A staged record either gets promoted into a
// confirmed booking by the payment callback, or it dies (failed, expired,
// or flagged corrupted for manual cleanup).
const (
	PendingStatusStaged    = "STAGED"
	PendingStatusVerified  = "VERIFIED"
	PendingStatusPromoted  = "PROMOTED"
	PendingStatusFailed    = "FAILED"
	PendingStatusExpired   = "EXPIRED"
	PendingStatusCorrupted = "CORRUPTED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusAttended  = "ATTENDED"
	BookingStatusNoShow    = "NO_SHOW"
)

const (
	EventStatusScheduled = "SCHEDULED"
	EventStatusCompleted = "COMPLETED"
	EventStatusCancelled = "CANCELLED"
)
