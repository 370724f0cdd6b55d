package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseModule(t *testing.T) {
	tests := []struct {
		in   string
		want Module
		ok   bool
	}{
		{"petty-cash", ModulePettyCash, true},
		{"CASH_ADVANCE", ModuleCashAdvance, true},
		{" expense ", ModuleExpense, true},
		{"engineering", Module("ENGINEERING"), false},
		{"", Module(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseModule(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModule_LabelAndSlug(t *testing.T) {
	assert.Equal(t, "Cash Advance", ModuleCashAdvance.Label())
	assert.Equal(t, "cash-advance", ModuleCashAdvance.Slug())
	assert.Equal(t, "petty-cash", ModulePettyCash.Slug())
	assert.Len(t, Modules(), 3)
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Role: "general cashier "}
	assert.True(t, u.HasRole(RoleGeneralCashier))
	assert.False(t, u.HasRole("Finance Manager"))
}
