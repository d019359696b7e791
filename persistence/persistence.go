// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"fmt"
	"time"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1-create-runs",
			Up: []string{
				`CREATE TABLE runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					mailbox TEXT NOT NULL,
					startedat DATETIME NOT NULL,
					finishedat DATETIME NOT NULL,
					scanned INTEGER NOT NULL,
					accepted INTEGER NOT NULL,
					skipped INTEGER NOT NULL,
					failed INTEGER NOT NULL
				)`,
			},
			Down: []string{`DROP TABLE runs`},
		},
	},
}

// Persistence is the sqlite scan journal: one row per batch run. The
// ledger itself lives in the xlsx file, the journal only records run
// history for the operator.
type Persistence struct {
	db *sqlx.DB
	l  *logrus.Logger
}

func NewPersistence(datasource string) (*Persistence, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Info("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrations, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db: db,
		l:  l,
	}, nil
}

func (p *Persistence) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.Info("Disconnected")
	return nil
}

func (p *Persistence) SaveRun(run *domain.RunSummary) error {
	result, err := p.db.Exec(
		"INSERT INTO runs(mailbox, startedat, finishedat, scanned, accepted, skipped, failed) VALUES(?, ?, ?, ?, ?, ?, ?)",
		run.Mailbox, run.StartedAt, run.FinishedAt, run.Scanned, run.Accepted, run.Skipped, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("could not save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("could not get run id: %w", err)
	}
	run.Id = id

	p.l.WithFields(logrus.Fields{"Mailbox": run.Mailbox, "Scanned": run.Scanned, "Accepted": run.Accepted}).Info("Persisted run")
	return nil
}

func (p *Persistence) RecentRuns(n int) ([]*domain.RunSummary, error) {
	dbRuns := []struct {
		Id         int64
		Mailbox    string
		StartedAt  time.Time `db:"startedat"`
		FinishedAt time.Time `db:"finishedat"`
		Scanned    int
		Accepted   int
		Skipped    int
		Failed     int
	}{}

	err := p.db.Select(
		&dbRuns,
		`SELECT id, mailbox, startedat, finishedat, scanned, accepted, skipped, failed from runs ORDER BY id DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}

	runs := []*domain.RunSummary{}
	for _, r := range dbRuns {
		runs = append(
			runs,
			&domain.RunSummary{
				Id:         r.Id,
				Mailbox:    r.Mailbox,
				StartedAt:  r.StartedAt,
				FinishedAt: r.FinishedAt,
				Scanned:    r.Scanned,
				Accepted:   r.Accepted,
				Skipped:    r.Skipped,
				Failed:     r.Failed,
			},
		)
	}

	return runs, nil
}
