// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"github.com/fraudwatch/go-imap-fraudwatch/config"
	"github.com/fraudwatch/go-imap-fraudwatch/fraudwatch"
	"github.com/fraudwatch/go-imap-fraudwatch/imapconnection"
	"github.com/fraudwatch/go-imap-fraudwatch/ledger"
	"github.com/fraudwatch/go-imap-fraudwatch/log"
	"github.com/fraudwatch/go-imap-fraudwatch/mail"
	"github.com/fraudwatch/go-imap-fraudwatch/persistence"
	"github.com/fraudwatch/go-imap-fraudwatch/riskmodel"

	"github.com/sirupsen/logrus"
)

func main() {
	log.InitLogging("debug")
	logger := log.Logger(log.LOG_MAIN)

	conf, err := config.ReadConfig("config.toml")
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		log.SetLogLevel(*conf.Loglevel)
	}

	p, err := persistence.NewPersistence(conf.Database)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not connect to scan journal")
	}
	defer p.Close()

	lg, err := ledger.NewXlsxLedger(conf.LedgerPath)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not open ledger")
	}

	model := riskmodel.NewModel(conf.VectorizerPath, conf.ClassifierPath)

	decoder := mail.NewDecoder()
	if conf.SaveAttachments {
		decoder = mail.NewSavingDecoder(conf.AttachmentDir)
	}

	imapConn, err := imapconnection.NewImapConnection(conf.ImapHost, conf.User, conf.Password)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start imap connector")
	}

	fw, err := fraudwatch.NewFraudWatch(
		imapConn,
		decoder,
		model,
		lg,
		p,
		fraudwatch.Limit(conf.Limit),
		fraudwatch.KeepaliveEvery(conf.KeepaliveEvery),
	)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start fraudwatch")
	}

	logger.WithFields(logrus.Fields{"mailbox": conf.Mailbox, "limit": conf.Limit, "ledger": conf.LedgerPath}).Info("Scanning mailbox for invoice candidates")
	summary, err := fw.Scan(conf.Mailbox)
	if err != nil {
		logger.WithField("error", err).Fatal("Scan failed")
	}

	logger.WithFields(logrus.Fields{"scanned": summary.Scanned, "accepted": summary.Accepted, "skipped": summary.Skipped, "failed": summary.Failed}).Info("Done")

	runs, err := p.RecentRuns(5)
	if err != nil {
		logger.WithField("error", err).Warn("Could not read scan journal")
		return
	}
	for _, run := range runs {
		logger.WithFields(logrus.Fields{"mailbox": run.Mailbox, "finished": run.FinishedAt.Format("2006-01-02 15:04:05"), "accepted": run.Accepted, "failed": run.Failed}).Debug("Recent run")
	}
}
