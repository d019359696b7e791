// SPDX-License-Identifier: GPL-3.0-or-later

// Package fraudwatch runs the batch over a mailbox: fetch, decode,
// gate, extract features, score, append to the ledger. Faults are
// isolated per message; only authentication and mailbox selection are
// fatal.
package fraudwatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/features"
	"github.com/fraudwatch/go-imap-fraudwatch/log"
	"github.com/fraudwatch/go-imap-fraudwatch/mail"
	"github.com/fraudwatch/go-imap-fraudwatch/rules"

	"github.com/sirupsen/logrus"
)

type FraudWatch struct {
	mailSource  domain.MailSource
	decoder     domain.MessageDecoder
	riskScorer  domain.RiskScorer
	ledger      domain.Ledger
	persistence domain.Persistence

	configuration *configuration

	l *logrus.Logger
}

func NewFraudWatch(mailSource domain.MailSource, decoder domain.MessageDecoder, riskScorer domain.RiskScorer, ledger domain.Ledger, persistence domain.Persistence, configFunc ...ConfigFunc) (*FraudWatch, error) {
	config := &configuration{
		Limit:          DefaultLimit,
		KeepaliveEvery: DefaultKeepaliveEvery,
	}
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	return &FraudWatch{
		mailSource:    mailSource,
		decoder:       decoder,
		riskScorer:    riskScorer,
		ledger:        ledger,
		persistence:   persistence,
		configuration: config,
		l:             log.Logger(log.LOG_FRAUDWATCH),
	}, nil
}

// Scan iterates the most recent messages of the mailbox, newest first,
// and appends one ledger row per accepted invoice candidate. The
// session is closed when the batch is exhausted; close failures are
// swallowed.
func (fw *FraudWatch) Scan(mailbox string) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		Mailbox:   mailbox,
		StartedAt: time.Now(),
	}

	err := fw.mailSource.Select(mailbox, true)
	if err != nil {
		return nil, err
	}

	uids, err := fw.mailSource.SearchAll()
	if err != nil {
		return nil, &domain.ConnectionError{Cause: fmt.Errorf("could not list mailbox %s: %w", mailbox, err)}
	}

	fw.l.WithFields(logrus.Fields{"mailbox": mailbox, "messages": len(uids)}).Info("Found messages")

	// Bound the batch to the most recent messages; uids arrive in
	// ascending order, the newest are at the end.
	if len(uids) > fw.configuration.Limit {
		uids = uids[len(uids)-fw.configuration.Limit:]
	}

	for i := len(uids) - 1; i >= 0; i-- {
		step := len(uids) - i
		fw.maybeKeepalive(step)

		fw.processMessage(uids[i], summary)
	}

	summary.FinishedAt = time.Now()

	err = fw.mailSource.Close()
	if err != nil {
		fw.l.WithField("error", err).Warn("Could not close mail session")
	}

	err = fw.persistence.SaveRun(summary)
	if err != nil {
		fw.l.WithField("error", err).Warn("Could not journal run")
	}

	if summary.Accepted == 0 {
		fw.l.WithField("mailbox", mailbox).Info("No invoice candidates matched")
	}

	fw.l.WithFields(logrus.Fields{
		"mailbox":  mailbox,
		"duration": summary.FinishedAt.Sub(summary.StartedAt),
		"scanned":  summary.Scanned,
		"accepted": summary.Accepted,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("Finished batch")

	return summary, nil
}

// maybeKeepalive probes the connection every Nth step. A probe failure
// is swallowed: the session is presumed still usable and later fetches
// fail individually if it is not.
func (fw *FraudWatch) maybeKeepalive(step int) {
	if step%fw.configuration.KeepaliveEvery != 0 {
		return
	}

	err := fw.mailSource.Noop()
	if err != nil {
		fw.l.WithFields(logrus.Fields{"step": step, "error": err}).Warn("Keepalive probe failed")
	}
}

func (fw *FraudWatch) processMessage(uid uint32, summary *domain.RunSummary) {
	summary.Scanned++

	rawMail, err := fw.mailSource.FetchRaw(uid)
	if err != nil {
		fw.l.WithFields(logrus.Fields{"uid": uid, "error": err}).Warn("Could not fetch message, skipping")
		summary.Failed++
		return
	}

	record, err := fw.decoder.Decode(rawMail)
	if err != nil {
		fw.l.WithFields(logrus.Fields{"uid": uid, "error": err}).Warn("Could not decode message, skipping")
		summary.Failed++
		return
	}

	accepted, reason := rules.IsInvoiceCandidate(record.Subject, record.Body)
	if !accepted {
		fw.l.WithFields(logrus.Fields{"uid": uid, "subject": mail.ShortSubject(record.Subject)}).Debug("Skipped message, no invoice signal")
		summary.Skipped++
		return
	}

	row := fw.buildRow(record, reason)

	err = fw.ledger.Append(row)
	if err != nil {
		fw.l.WithFields(logrus.Fields{"uid": uid, "messageid": record.MessageId, "error": err}).Error("Could not append ledger row")
		summary.Failed++
		return
	}

	summary.Accepted++
	fw.l.WithFields(logrus.Fields{"uid": uid, "subject": mail.ShortSubject(record.Subject), "reason": reason, "risk": row.RiskScore}).Info("Saved invoice candidate")
}

// buildRow extracts the features, scores them and assembles the ledger
// row. A scoring failure degrades to empty risk fields; the row is
// written either way.
func (fw *FraudWatch) buildRow(record *domain.MessageRecord, reason string) *domain.LedgerRow {
	fromDomain := features.DomainFromHeader(record.Sender)
	replyDomain := features.DomainFromHeader(record.ReplyTo)
	attachmentTypes := features.AttachmentExtensions(record.AttachmentNames())

	amountValue, amountGuess, amountFound := features.ExtractAmount(record.Subject + "\n" + record.Body)
	amountToken := features.QuantizeAmount(amountValue, amountFound)

	combinedText := features.CombinedText(record.Subject, record.Body, fromDomain, replyDomain, attachmentTypes, amountToken)

	riskScore, topTokens := "", ""
	assessment, err := fw.riskScorer.Score(combinedText)
	if err != nil {
		fw.l.WithFields(logrus.Fields{"subject": mail.ShortSubject(record.Subject), "error": err}).Warn("Scoring unavailable, recording row without risk fields")
	} else {
		riskScore = strconv.Itoa(assessment.Score)
		topTokens = strings.Join(assessment.TopTokens, ", ")
	}

	return &domain.LedgerRow{
		From:            record.Sender,
		Subject:         record.Subject,
		Date:            record.Date,
		HasPdf:          record.HasPdf(),
		AttachmentNames: strings.Join(record.AttachmentNames(), ", "),
		Reason:          reason,
		MessageId:       record.MessageId,
		FromDomain:      fromDomain,
		ReplyDomain:     replyDomain,
		AttachmentTypes: attachmentTypes,
		AmountGuess:     amountGuess,
		RiskScore:       riskScore,
		TopTokens:       topTokens,
	}
}
