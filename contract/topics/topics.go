// Package topics names the bus topics shared by the identity, ride and booking services
// and defines the payloads that travel on them.
package topics

// Request/reply topics.
const (
	UserExists = "user.exists"
	RideGet    = "ride.get"
)

// Fire-and-forget topics.
const (
	RideDecreaseSeat = "ride.decreaseSeat"
	RideIncreaseSeat = "ride.increaseSeat"
	RideBooked       = "ride.booked"
)

// Role is the account type of a user.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleDriver    Role = "DRIVER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserExistsReply answers UserExists. Role and IsEmailVerified are only set when Exists is true.
type UserExistsReply struct {
	Exists          bool  `json:"exists"`
	Role            Role  `json:"role,omitempty"`
	IsEmailVerified *bool `json:"isEmailVerified,omitempty"`
}

// RideSnapshot answers RideGet. Unknown rides are answered with a JSON null.
type RideSnapshot struct {
	ID             string `json:"id"`
	Destination    string `json:"destination"`
	AvailableSeats int    `json:"availableSeats"`
}

// RideBookedEvent is emitted on RideBooked after a booking commits.
type RideBookedEvent struct {
	RideID      string `json:"rideId"`
	PassengerID string `json:"passengerId"`
	Destination string `json:"destination"`
}
