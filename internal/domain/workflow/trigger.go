package workflow

// Trigger is an event that moves a request between statuses
type Trigger string

const (
	// TriggerRoute hands the request to the next approver; it stays PENDING.
	TriggerRoute  Trigger = "ROUTE"
	TriggerSettle Trigger = "SETTLE"
	TriggerReject Trigger = "REJECT"
)

func (t Trigger) String() string {
	return string(t)
}
