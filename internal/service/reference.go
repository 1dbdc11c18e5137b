package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// References issues the human-facing identifiers of a booking.  Every value
// is a fixed prefix, a millisecond timestamp and a random base-36 suffix,
// so it is unique in practice and easy to grep for in logs.
type References struct {
	Now func() time.Time
}

// NewReferences returns a generator on the wall clock.
func NewReferences() *References {
	return &References{Now: time.Now}
}

// TicketNumber returns e.g. "TK-1760601600000K3F9Q".
func (g *References) TicketNumber() string {
	return "TK-" + g.millis() + randomSuffix(5)
}

// BookingReference returns e.g. "BKG-600000X7KQ2".  The same value is
// stored on the ticket and on its transaction.
func (g *References) BookingReference() string {
	ms := g.millis()
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "BKG-" + ms + randomSuffix(5)
}

// TransactionNumber returns e.g. "TXN-1760601600000AB12CD".
func (g *References) TransactionNumber() string {
	return "TXN-" + g.millis() + randomSuffix(6)
}

func (g *References) millis() string {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	return strconv.FormatInt(now().UnixMilli(), 10)
}

// randomSuffix draws n base-36 characters from a version 4 UUID.
func randomSuffix(n int) string {
	var sb strings.Builder
	for sb.Len() < n {
		id := uuid.New()
		for _, b := range id[:] {
			if sb.Len() == n {
				break
			}
			// skip values that would bias the modulo
			if b >= 252 {
				continue
			}
			sb.WriteByte(refAlphabet[int(b)%len(refAlphabet)])
		}
	}
	return sb.String()
}
