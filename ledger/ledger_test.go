// SPDX-License-Identifier: GPL-3.0-or-later
package ledger

import (
	"path/filepath"
	"testing"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func sampleRow(subject string) *domain.LedgerRow {
	return &domain.LedgerRow{
		SavedAt:         "2024-05-01 10:00:00",
		From:            "Bill <bill@acme.com>",
		Subject:         subject,
		Date:            "Mon, 02 Jan 2006 15:04:05 -0700",
		HasPdf:          true,
		AttachmentNames: "invoice.pdf",
		Reason:          "keyword",
		MessageId:       "<abc123@acme.com>",
		FromDomain:      "acme.com",
		ReplyDomain:     "",
		AttachmentTypes: "pdf",
		AmountGuess:     "250.00",
		RiskScore:       "87",
		TopTokens:       "urgent, invoice",
	}
}

func sheetRows(t *testing.T, path string) [][]string {
	f, err := excelize.OpenFile(path)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	assert.NoError(t, err)
	return rows
}

func TestNewXlsxLedgerCreatesWorkbookWithHeader(t *testing.T) {
	log.InitLogging("error")
	path := filepath.Join(t.TempDir(), "invoices.xlsx")

	_, err := NewXlsxLedger(path)
	assert.NoError(t, err)

	rows := sheetRows(t, path)
	assert.Len(t, rows, 1)
	assert.Equal(t, Header, rows[0])
}

func TestAppend(t *testing.T) {
	log.InitLogging("error")
	path := filepath.Join(t.TempDir(), "invoices.xlsx")

	lg, err := NewXlsxLedger(path)
	assert.NoError(t, err)

	assert.NoError(t, lg.Append(sampleRow("Invoice #1234 due")))
	assert.NoError(t, lg.Append(sampleRow("Invoice #5678 due")))

	rows := sheetRows(t, path)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Invoice #1234 due", rows[1][2])
	assert.Equal(t, "Invoice #5678 due", rows[2][2])
	assert.Equal(t, "TRUE", rows[1][4])
	assert.Equal(t, "acme.com", rows[1][8])
	assert.Equal(t, "250.00", rows[1][11])
	assert.Equal(t, "87", rows[1][12])
}

func TestAppendIsAppendOnly(t *testing.T) {
	log.InitLogging("error")
	path := filepath.Join(t.TempDir(), "invoices.xlsx")

	lg, err := NewXlsxLedger(path)
	assert.NoError(t, err)
	assert.NoError(t, lg.Append(sampleRow("Invoice #1234 due")))

	// A fresh ledger over the same file appends, it never rewrites
	reopened, err := NewXlsxLedger(path)
	assert.NoError(t, err)
	assert.NoError(t, reopened.Append(sampleRow("Invoice #1234 due")))

	rows := sheetRows(t, path)
	assert.Len(t, rows, 3)
	assert.Equal(t, rows[1], rows[2])
}

func TestAppendFillsSavedAt(t *testing.T) {
	log.InitLogging("error")
	path := filepath.Join(t.TempDir(), "invoices.xlsx")

	lg, err := NewXlsxLedger(path)
	assert.NoError(t, err)

	row := sampleRow("Invoice")
	row.SavedAt = ""
	assert.NoError(t, lg.Append(row))
	assert.NotEmpty(t, row.SavedAt)

	rows := sheetRows(t, path)
	assert.Equal(t, row.SavedAt, rows[1][0])
}
