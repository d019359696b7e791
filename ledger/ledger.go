// SPDX-License-Identifier: GPL-3.0-or-later

// Package ledger is the append-only xlsx store of accepted invoice
// candidates. The workbook is created with its fixed header if absent
// and saved after every append so partial runs are never lost.
package ledger

import (
	"fmt"
	"os"
	"time"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName       = "Invoices"
	SavedAtFormat   = "2006-01-02 15:04:05"
	defaultSheet    = "Sheet1"
	columnHeaderRow = 1
)

// Header is the fixed column header; rows are written in this order.
var Header = []string{
	"SavedAt", "From", "Subject", "Date", "HasPDF", "AttachmentNames", "Reason", "MessageID",
	"FromDomain", "ReplyDomain", "AttachmentTypes", "AmountGuess",
	"MLRiskScore", "MLTopTokens",
}

type XlsxLedger struct {
	path string

	l *logrus.Logger
}

// NewXlsxLedger opens the workbook at path, creating it with the
// header row if it does not exist yet.
func NewXlsxLedger(path string) (*XlsxLedger, error) {
	l := log.Logger(log.LOG_LEDGER)

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		err = createWorkbook(path)
		if err != nil {
			return nil, err
		}
		l.WithField("file", path).Info("Created ledger")
	} else if err != nil {
		return nil, fmt.Errorf("could not stat ledger file: %w", err)
	} else {
		l.WithField("file", path).Info("Opened ledger")
	}

	return &XlsxLedger{
		path: path,
		l:    l,
	}, nil
}

func createWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName(defaultSheet, SheetName)
	if err != nil {
		return fmt.Errorf("could not name ledger sheet: %w", err)
	}

	err = writeRow(f, columnHeaderRow, toCells(Header))
	if err != nil {
		return err
	}

	err = f.SaveAs(path)
	if err != nil {
		return fmt.Errorf("could not create ledger file: %w", err)
	}

	return nil
}

// Append writes one row and saves the workbook. Existing rows are
// never touched; re-running a batch appends, it does not deduplicate.
func (lg *XlsxLedger) Append(row *domain.LedgerRow) error {
	if len(row.SavedAt) == 0 {
		row.SavedAt = time.Now().Format(SavedAtFormat)
	}

	f, err := excelize.OpenFile(lg.path)
	if err != nil {
		return &domain.PersistError{Cause: fmt.Errorf("could not open ledger file: %w", err)}
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return &domain.PersistError{Cause: fmt.Errorf("could not read ledger sheet: %w", err)}
	}

	cells := []interface{}{
		row.SavedAt, row.From, row.Subject, row.Date, row.HasPdf, row.AttachmentNames, row.Reason, row.MessageId,
		row.FromDomain, row.ReplyDomain, row.AttachmentTypes, row.AmountGuess,
		row.RiskScore, row.TopTokens,
	}

	err = writeRow(f, len(rows)+1, cells)
	if err != nil {
		return &domain.PersistError{Cause: err}
	}

	err = f.Save()
	if err != nil {
		return &domain.PersistError{Cause: fmt.Errorf("could not save ledger file: %w", err)}
	}

	lg.l.WithFields(logrus.Fields{"subject": row.Subject, "row": len(rows) + 1}).Debug("Appended ledger row")
	return nil
}

func writeRow(f *excelize.File, rowNumber int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNumber)
		if err != nil {
			return fmt.Errorf("could not compute cell name: %w", err)
		}

		err = f.SetCellValue(SheetName, cell, value)
		if err != nil {
			return fmt.Errorf("could not write cell %s: %w", cell, err)
		}
	}

	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
