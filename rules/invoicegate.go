// SPDX-License-Identifier: GPL-3.0-or-later

// Package rules holds the heuristic pre-filter deciding which messages
// reach scoring and the ledger at all. It is deliberately narrow: the
// fraud decision is the classifier's, the gate only bounds volume.
package rules

import (
	"regexp"
	"strings"
)

const (
	ReasonKeyword  = "keyword"
	ReasonNoSignal = "no strong signal"
)

var invoiceNumberPattern = regexp.MustCompile(`(?i)(invoice\s*#?\s*\d{3,}|inv[-\s]?\d{3,}|#\d{3,})`)

// IsInvoiceCandidate reports whether subject+body look invoice-related,
// together with the reason string that ends up in the ledger.
func IsInvoiceCandidate(subject, body string) (bool, string) {
	text := strings.ToLower(subject + "\n" + body)
	if strings.Contains(text, "invoice") {
		return true, ReasonKeyword
	}

	return false, ReasonNoSignal
}

// MatchesInvoiceNumber reports whether the text contains an explicit
// invoice-number form like "invoice #1234", "INV-1234" or "#1234".
// Available as a stricter signal; the default gate stays keyword-only.
func MatchesInvoiceNumber(text string) bool {
	return invoiceNumberPattern.MatchString(text)
}
