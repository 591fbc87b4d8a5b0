package payment

import (
	"strconv"
	"strings"
)

// SessionState is the lifecycle of one hosted checkout attempt:
// created -> open -> complete | expired.
type SessionState int

const (
	StateUnknown SessionState = iota
	StateCreated
	StateOpen
	StateComplete
	StateExpired
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpen:
		return "open"
	case StateComplete:
		return "complete"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ParseSessionState maps the processor's status string onto a SessionState.
func ParseSessionState(status string) SessionState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "created":
		return StateCreated
	case "open":
		return StateOpen
	case "complete":
		return StateComplete
	case "expired":
		return StateExpired
	default:
		return StateUnknown
	}
}

// Metadata keys attached to every checkout session this service creates.
const (
	MetaListingID   = "listing_id"
	MetaListingName = "listing_name"
	MetaBuyerID     = "buyer_id"
	MetaSellerID    = "seller_id"
)

// Session is a snapshot of a processor checkout session.
type Session struct {
	ID            string
	URL           string
	State         SessionState
	AmountTotal   int64 // minor units
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

// ConfirmedSession is a session whose completion was re-checked against the
// processor by Bridge.Confirm. Fulfillment only accepts this type.
type ConfirmedSession struct {
	s Session
}

func (c ConfirmedSession) Session() Session { return c.s }

type LineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Currency   string
	Quantity   int64
}

type CheckoutRequest struct {
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	Metadata      map[string]string
}

const EventCheckoutSessionCompleted = "checkout.session.completed"

// Event is a webhook whose signature has been verified.
type Event struct {
	ID      string
	Type    string
	Session *Session // set for checkout.session.* events
}

// FormatMinorUnits renders an amount in minor units as major units the way the
// confirmation email shows it: 1000 -> "10.0", 1050 -> "10.5", 1099 -> "10.99".
func FormatMinorUnits(minor int64) string {
	if minor%100 == 0 {
		return strconv.FormatInt(minor/100, 10) + ".0"
	}
	return strconv.FormatFloat(float64(minor)/100, 'f', -1, 64)
}
