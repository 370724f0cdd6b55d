package approval

import (
	"fmt"
	"time"

	"github.com/garyjia/backoffice-approvals/internal/domain/entity"
)

// Kind tags a single resolver step
type Kind string

const (
	// KindSkipped: slot unconfigured or name did not resolve; no history
	KindSkipped Kind = "skipped"
	// KindAutoSkipped: candidate is the requester; writes an Auto-Approved record
	KindAutoSkipped     Kind = "auto_skipped"
	KindNextApprover    Kind = "next_approver"
	KindCashierAssigned Kind = "cashier_assigned"
	// KindAutoPaid: cashier is the requester; writes an Auto-Paid record and settles
	KindAutoPaid Kind = "auto_paid"
	KindSettled  Kind = "settled"
)

// Skip reasons
const (
	ReasonUnconfigured = "slot not configured"
	ReasonUnresolved   = "approver name not found in user directory"
)

// Outcome is one step taken while walking the approval sequence
type Outcome struct {
	Kind     Kind
	Position int
	UserID   string
	UserName string
	Reason   string
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSkipped:
		return fmt.Sprintf("%s@%d(%s)", o.Kind, o.Position, o.Reason)
	case KindSettled:
		return fmt.Sprintf("%s@%d", o.Kind, o.Position)
	default:
		return fmt.Sprintf("%s@%d(%s)", o.Kind, o.Position, o.UserID)
	}
}

// Resolution is the ordered list of steps produced by one resolver run.
// The last outcome is always terminal for the run: NextApprover, CashierAssigned, AutoPaid or Settled.
type Resolution struct {
	Outcomes []Outcome
}

// Final returns the step that ended the run
func (r Resolution) Final() Outcome {
	if len(r.Outcomes) == 0 {
		return Outcome{}
	}
	return r.Outcomes[len(r.Outcomes)-1]
}

// Settles reports whether applying the resolution marks the request PAID
func (r Resolution) Settles() bool {
	k := r.Final().Kind
	return k == KindSettled || k == KindAutoPaid
}

// Apply replays the outcomes onto req, appending audit records stamped with now
func (r Resolution) Apply(req *entity.Request, now time.Time) error {
	for _, o := range r.Outcomes {
		if err := apply(req, o, now); err != nil {
			return fmt.Errorf("apply %s: %w", o, err)
		}
	}
	return nil
}

func apply(req *entity.Request, o Outcome, now time.Time) error {
	switch o.Kind {
	case KindSkipped:
		req.ApproveOrder = o.Position
		req.AdvancePosition()
	case KindAutoSkipped:
		req.ApproveOrder = o.Position
		req.AppendHistory(entity.HistoryRecord{
			ActorUserID: o.UserID,
			ActorName:   o.UserName,
			Action:      entity.ActionAutoApproved,
			Position:    o.Position,
			Note:        entity.NoteSelfApprovalSkip,
			Timestamp:   now,
		})
		req.AdvancePosition()
	case KindNextApprover, KindCashierAssigned:
		return req.AssignApprover(o.Position, o.UserID, o.UserName)
	case KindAutoPaid:
		if err := req.AssignApprover(o.Position, o.UserID, o.UserName); err != nil {
			return err
		}
		req.AppendHistory(entity.HistoryRecord{
			ActorUserID: o.UserID,
			ActorName:   o.UserName,
			Action:      entity.ActionAutoPaid,
			Position:    o.Position,
			Note:        entity.NoteSelfSettlement,
			Timestamp:   now,
		})
		return req.Settle(now)
	case KindSettled:
		return req.Settle(now)
	default:
		return fmt.Errorf("unknown outcome kind %q", o.Kind)
	}
	return nil
}
