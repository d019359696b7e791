// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/risk.go -package=mocks . RiskScorer

// RiskAssessment is the classifier output for one combined feature text.
// Score is an integer percentage; TopTokens is best-effort advisory
// output and may be empty.
type RiskAssessment struct {
	Score     int
	TopTokens []string
}

// RiskScorer scores a canonical combined feature text. Implementations
// must be pure with respect to the input: no hidden per-call state.
type RiskScorer interface {
	Score(combinedText string) (*RiskAssessment, error)
}
