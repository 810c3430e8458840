package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderNumber builds a display order number, e.g. INV-20260829-7K2Q9X.
// The random tail keeps numbers unguessable; the orders table enforces
// uniqueness, so callers retry with a fresh number on a unique violation.
func NewOrderNumber(now time.Time) string {
	tail := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range tail {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived character rather than panicking.
			tail[i] = orderNumberAlphabet[time.Now().UnixNano()%int64(len(orderNumberAlphabet))]
			continue
		}
		tail[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), tail)
}
