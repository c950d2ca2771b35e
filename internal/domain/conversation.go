package domain

import "time"

// Role attributes a conversation turn to one side of the exchange.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Turn is a single message in a sender's conversation.
type Turn struct {
	Role Role
	Text string
}

// Interaction is one processed SMS exchange as written to the interaction log.
type Interaction struct {
	Timestamp time.Time
	Sender    string
	Incoming  string
	Reply     string
}
