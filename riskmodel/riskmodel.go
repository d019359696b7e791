// SPDX-License-Identifier: GPL-3.0-or-later

// Package riskmodel scores a combined feature text against a persisted
// vectorizer + classifier artifact pair produced by the offline
// trainer. The pair is loaded lazily, exactly once per process.
package riskmodel

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/sirupsen/logrus"
)

const TopTokenCount = 5

type Model struct {
	vectorizerPath string
	classifierPath string

	once    sync.Once
	loadErr error
	vec     *Vectorizer
	clf     *Classifier

	l *logrus.Logger
}

func NewModel(vectorizerPath, classifierPath string) *Model {
	return &Model{
		vectorizerPath: vectorizerPath,
		classifierPath: classifierPath,
		l:              log.Logger(log.LOG_RISKMODEL),
	}
}

// Score vectorizes the combined text and maps the positive-class
// probability to an integer percentage, rounded to nearest. The top
// positive-weight tokens present in the input are attached as
// best-effort explanation.
func (m *Model) Score(combinedText string) (*domain.RiskAssessment, error) {
	m.once.Do(m.load)
	if m.loadErr != nil {
		return nil, &domain.ModelUnavailableError{Cause: m.loadErr}
	}

	columns := m.vec.Transform(combinedText)
	probability := m.clf.Probability(columns)

	return &domain.RiskAssessment{
		Score:     int(math.Round(probability * 100)),
		TopTokens: m.topTokens(columns),
	}, nil
}

func (m *Model) load() {
	vec, clf, err := LoadArtifacts(m.vectorizerPath, m.classifierPath)
	if err != nil {
		m.l.WithField("error", err).Warn("Could not load model artifacts")
		m.loadErr = err
		return
	}

	m.vec = vec
	m.clf = clf
	m.l.WithFields(logrus.Fields{"vocabulary": len(vec.Vocabulary), "vectorizer": m.vectorizerPath, "classifier": m.classifierPath}).Info("Loaded model artifacts")
}

// topTokens selects the at most 5 vocabulary tokens present in the
// input with the largest strictly positive model weight, largest
// first. Ties break on the token itself so the output is stable.
func (m *Model) topTokens(columns map[int]float64) []string {
	type weighted struct {
		term   string
		weight float64
	}

	candidates := []weighted{}
	for column := range columns {
		weight := m.clf.Weights[column]
		if weight > 0 {
			candidates = append(candidates, weighted{m.vec.terms[column], weight})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].term < candidates[j].term
	})

	if len(candidates) > TopTokenCount {
		candidates = candidates[:TopTokenCount]
	}

	tokens := []string{}
	for _, c := range candidates {
		tokens = append(tokens, c.term)
	}
	return tokens
}

// Probability is the logistic positive-class probability for the given
// tf-idf columns.
func (c *Classifier) Probability(columns map[int]float64) float64 {
	z := c.Intercept
	for column, value := range columns {
		z += c.Weights[column] * value
	}

	return 1 / (1 + math.Exp(-z))
}

func validatePair(vec *Vectorizer, clf *Classifier) error {
	if vec.FormatVersion != clf.FormatVersion {
		return fmt.Errorf("artifact version mismatch: vectorizer %d, classifier %d", vec.FormatVersion, clf.FormatVersion)
	}

	if len(vec.Idf) != len(vec.Vocabulary) {
		return fmt.Errorf("vectorizer idf length %d does not match vocabulary size %d", len(vec.Idf), len(vec.Vocabulary))
	}

	if len(clf.Weights) != len(vec.Vocabulary) {
		return fmt.Errorf("classifier weight length %d does not match vocabulary size %d", len(clf.Weights), len(vec.Vocabulary))
	}

	for term, column := range vec.Vocabulary {
		if column < 0 || column >= len(vec.Idf) {
			return fmt.Errorf("vocabulary term %q has out-of-range column %d", term, column)
		}
	}

	return nil
}
