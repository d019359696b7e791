// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "time"

//go:generate mockgen -destination=mocks/persistence.go -package=mocks . Persistence

// RunSummary records the outcome of one batch run over a mailbox.
type RunSummary struct {
	Id         int64
	Mailbox    string
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Accepted   int
	Skipped    int
	Failed     int
}

type Persistence interface {
	Close() error
	SaveRun(run *RunSummary) error
	RecentRuns(n int) ([]*RunSummary, error)
}
