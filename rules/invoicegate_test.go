// SPDX-License-Identifier: GPL-3.0-or-later
package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvoiceCandidate(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		body     string
		accepted bool
		reason   string
	}{
		{"keyword in subject", "Invoice #1234 due", "Please pay", true, ReasonKeyword},
		{"keyword in body", "Friendly reminder", "your invoice is attached", true, ReasonKeyword},
		{"keyword uppercase", "INVOICE", "", true, ReasonKeyword},
		{"no signal", "Team lunch Friday", "Team lunch Friday", false, ReasonNoSignal},
		{"payment alone is not enough", "Payment reminder", "please settle the balance", false, ReasonNoSignal},
		{"empty", "", "", false, ReasonNoSignal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			accepted, reason := IsInvoiceCandidate(tc.subject, tc.body)
			assert.Equal(t, tc.accepted, accepted)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestMatchesInvoiceNumber(t *testing.T) {
	assert.True(t, MatchesInvoiceNumber("invoice #1234"))
	assert.True(t, MatchesInvoiceNumber("INV-2044 attached"))
	assert.True(t, MatchesInvoiceNumber("re: #456789"))
	assert.False(t, MatchesInvoiceNumber("invoice"))
	assert.False(t, MatchesInvoiceNumber("#12"))
}
