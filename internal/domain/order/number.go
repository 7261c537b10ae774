package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// numberPrefix starts every human-readable order number.
const numberPrefix = "ORD"

// NewNumber generates an order number of the form ORD-<unix millis>-<6 hex>.
// The random suffix makes collisions within one millisecond negligible;
// actual uniqueness is enforced by the storage layer's unique constraint,
// not hoped for here.
func NewNumber(now time.Time) string {
	var buf [3]byte
	// rand.Read never fails on supported platforms (crypto/rand panics
	// internally on broken entropy sources since Go 1.24).
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%s-%d-%s", numberPrefix, now.UnixMilli(), hex.EncodeToString(buf[:]))
}
