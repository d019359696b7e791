// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/ledger.go -package=mocks . Ledger

// LedgerRow is the full persisted record for one accepted invoice
// candidate. Risk fields are empty strings when scoring was
// unavailable for the message.
type LedgerRow struct {
	SavedAt         string
	From            string
	Subject         string
	Date            string
	HasPdf          bool
	AttachmentNames string
	Reason          string
	MessageId       string
	FromDomain      string
	ReplyDomain     string
	AttachmentTypes string
	AmountGuess     string
	RiskScore       string
	TopTokens       string
}

// Ledger is an append-only store of LedgerRows. Rows are never updated
// or deleted; every append is durable before the call returns.
type Ledger interface {
	Append(row *LedgerRow) error
}
