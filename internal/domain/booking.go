package domain

type BookingID string

// Role is the side of a booking an identity is on.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

// Booking is the slice of a booking record that authorizes a call.
type Booking struct {
	ID           BookingID
	Customer     Identity
	Provider     Identity
	DisplayNames map[Identity]string
}

// RoleOf reports which side id is on.
func (b *Booking) RoleOf(id Identity) (Role, bool) {
	switch id {
	case b.Customer:
		return RoleCustomer, true
	case b.Provider:
		return RoleProvider, true
	}
	return "", false
}

// Counterpart returns the other participant.
func (b *Booking) Counterpart(id Identity) (Identity, bool) {
	switch id {
	case b.Customer:
		return b.Provider, true
	case b.Provider:
		return b.Customer, true
	}
	return "", false
}

func (b *Booking) NameOf(id Identity) string {
	if b.DisplayNames == nil {
		return ""
	}
	return b.DisplayNames[id]
}
