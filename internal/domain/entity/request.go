package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/backoffice-approvals/internal/domain/workflow"
)

// Request is a petty cash, cash advance or expense request moving through the approval chain.
// History is owned by the request and only ever appended to.
type Request struct {
	ID          int64           `json:"id"`
	Module      Module          `json:"module"`
	OwnerUserID string          `json:"owner_user_id"`
	OwnerName   string          `json:"owner_name"`
	Department  string          `json:"department"`
	Division    string          `json:"division"`
	Description string          `json:"description,omitempty"`
	Items       []LineItem      `json:"items,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`

	Status                workflow.State `json:"status"`
	ApproveOrder          int            `json:"approve_order"`
	CurrentApproverUserID string         `json:"current_approver_user_id,omitempty"`
	CurrentApproverName   string         `json:"current_approver_name,omitempty"`

	History []HistoryRecord `json:"history"`

	// Version is bumped on every persisted transition (optimistic lock)
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// LineItem is one petty cash line
type LineItem struct {
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// HistoryRecord is one audit-trail entry; immutable once appended
type HistoryRecord struct {
	ID          int64     `json:"id,omitempty"`
	ActorUserID string    `json:"actor_user_id"`
	ActorName   string    `json:"actor_name"`
	Action      string    `json:"action"`
	Position    int       `json:"position"`
	Note        string    `json:"note,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Total is the sum of line items for petty cash and the direct amount otherwise
func (r *Request) Total() decimal.Decimal {
	if r.Module != ModulePettyCash {
		return r.Amount
	}
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// IsTerminal reports whether the request is PAID or REJECTED
func (r *Request) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// HasApprover reports whether someone is currently expected to act
func (r *Request) HasApprover() bool {
	return r.CurrentApproverUserID != ""
}

// AwaitsActionFrom reports whether userID may approve or reject right now
func (r *Request) AwaitsActionFrom(userID string) bool {
	return r.Status == workflow.StatePending && userID != "" && r.CurrentApproverUserID == userID
}

// AppendHistory adds an entry to the audit trail
func (r *Request) AppendHistory(rec HistoryRecord) {
	if rec.Position == 0 {
		rec.Position = r.ApproveOrder
	}
	r.History = append(r.History, rec)
}

// PendingHistory returns the entries appended since the request was last loaded
func (r *Request) PendingHistory() []HistoryRecord {
	var pending []HistoryRecord
	for _, rec := range r.History {
		if rec.ID == 0 {
			pending = append(pending, rec)
		}
	}
	return pending
}

// AdvancePosition moves to the next sequence position, never past the cashier stage
func (r *Request) AdvancePosition() {
	if r.ApproveOrder < PositionCashier {
		r.ApproveOrder++
	}
}

// AssignApprover hands the request to a user at the given position
func (r *Request) AssignApprover(position int, userID, name string) error {
	if err := r.fire(workflow.TriggerRoute); err != nil {
		return err
	}
	if position < r.ApproveOrder {
		return fmt.Errorf("approval position cannot move back from %d to %d", r.ApproveOrder, position)
	}
	r.ApproveOrder = position
	r.CurrentApproverUserID = userID
	r.CurrentApproverName = name
	return nil
}

// Settle marks the request PAID and freezes its position at the cashier stage
func (r *Request) Settle(at time.Time) error {
	if err := r.fire(workflow.TriggerSettle); err != nil {
		return err
	}
	r.ApproveOrder = PositionCashier
	r.clearApprover()
	r.SettledAt = &at
	return nil
}

// Reject marks the request REJECTED; its position stays where it was
func (r *Request) Reject() error {
	if err := r.fire(workflow.TriggerReject); err != nil {
		return err
	}
	r.clearApprover()
	return nil
}

func (r *Request) clearApprover() {
	r.CurrentApproverUserID = ""
	r.CurrentApproverName = ""
}

func (r *Request) fire(trigger workflow.Trigger) error {
	next, err := workflow.Next(r.Status, trigger)
	if err != nil {
		return fmt.Errorf("request %d: %w", r.ID, err)
	}
	r.Status = next
	return nil
}
