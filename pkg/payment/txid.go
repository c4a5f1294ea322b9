package payment

import (
	"strconv"
	"time"
)

const (
	txnPrefix = "NIBOG_"

	// Gateway constraint on merchantTransactionId length.
	maxTransactionIDLen = 38
)

// GenerateTransactionID builds NIBOG_{bookingID}_{epochMillis}. When the
// result would exceed the gateway's 38-char cap, the booking id fragment is
// reduced to its last 6 characters; prefix and timestamp always survive
// truncation. Uniqueness rests on millisecond granularity plus booking id
// entropy; a collision just gets the attempt rejected by the gateway.
func GenerateTransactionID(bookingID string, now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	id := txnPrefix + bookingID + "_" + millis
	if len(id) <= maxTransactionIDLen {
		return id
	}
	frag := bookingID
	if len(frag) > 6 {
		frag = frag[len(frag)-6:]
	}
	if keep := maxTransactionIDLen - len(txnPrefix) - 1 - len(millis); len(frag) > keep {
		if keep < 0 {
			keep = 0
		}
		frag = frag[len(frag)-keep:]
	}
	return txnPrefix + frag + "_" + millis
}
