package entity

import "strings"

// Module identifies which back-office request type a record belongs to
type Module string

const (
	ModulePettyCash   Module = "PETTY_CASH"
	ModuleCashAdvance Module = "CASH_ADVANCE"
	ModuleExpense     Module = "EXPENSE"
)

var moduleLabels = map[Module]string{
	ModulePettyCash:   "Petty Cash",
	ModuleCashAdvance: "Cash Advance",
	ModuleExpense:     "Expense",
}

// Modules lists every module routed through the approval engine
func Modules() []Module {
	return []Module{ModulePettyCash, ModuleCashAdvance, ModuleExpense}
}

// IsValid returns true for the three request modules
func (m Module) IsValid() bool {
	_, ok := moduleLabels[m]
	return ok
}

// Label is the human request-type label used in notifications and exports
func (m Module) Label() string {
	if label, ok := moduleLabels[m]; ok {
		return label
	}
	return string(m)
}

// Slug is the URL form, e.g. "petty-cash"
func (m Module) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(m)), "_", "-")
}

// ParseModule accepts either the constant ("CASH_ADVANCE") or the slug ("cash-advance")
func ParseModule(s string) (Module, bool) {
	m := Module(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	return m, m.IsValid()
}

// History action labels
const (
	ActionCreated      = "Created"
	ActionApproved     = "Approved"
	ActionRejected     = "Rejected"
	ActionAutoApproved = "Auto-Approved"
	ActionAutoPaid     = "Auto-Paid"
)

// History notes written by the resolver
const (
	NoteSelfApprovalSkip = "Self-approval skip"
	NoteSelfSettlement   = "Self-settlement"
)

// RoleGeneralCashier is the role that performs final settlement
const RoleGeneralCashier = "General Cashier"

// Approval sequence positions
const (
	PositionDepartmentApproverOne = 1
	PositionDepartmentApproverTwo = 2
	PositionDivisionHeadOne       = 3
	PositionDivisionHeadTwo       = 4
	PositionCashier               = 5
)

// DefaultCurrency is used when a request is submitted without one
const DefaultCurrency = "IDR"
