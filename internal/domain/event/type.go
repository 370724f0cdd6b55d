package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated  Type = "request.created"
	TypeRequestApproved Type = "request.approved"
	TypeRequestSettled  Type = "request.settled"
	TypeRequestRejected Type = "request.rejected"
)

func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestApproved,
		TypeRequestSettled,
		TypeRequestRejected:
		return true
	default:
		return false
	}
}
