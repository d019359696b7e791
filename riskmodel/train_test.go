// SPDX-License-Identifier: GPL-3.0-or-later
package riskmodel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func labeledExamples() []TrainingExample {
	return []TrainingExample{
		{Text: "urgent wire transfer invoice overdue pay immediately FROM:acme-billing.ru AMOUNT_BIN:HIGH", Label: 1},
		{Text: "final notice invoice unpaid wire the amount today FROM:pay-now.biz AMOUNT_BIN:HIGH", Label: 1},
		{Text: "password expired verify invoice payment account suspended FROM:secure-mail.xyz AMOUNT_BIN:MED", Label: 1},
		{Text: "urgent payment required invoice attached act now FROM:invoices.top AMOUNT_BIN:HIGH", Label: 1},
		{Text: "monthly invoice for your subscription FROM:vendor.com AMOUNT_BIN:LOW", Label: 0},
		{Text: "invoice receipt thank you for your purchase FROM:shop.example AMOUNT_BIN:LOW", Label: 0},
		{Text: "your invoice is ready to view in the portal FROM:utility.example AMOUNT_BIN:MED", Label: 0},
		{Text: "invoice statement attached as every month FROM:accounting.example AMOUNT_BIN:LOW", Label: 0},
	}
}

func TestFitSeparatesClasses(t *testing.T) {
	vec, clf, err := Fit(labeledExamples(), 1000)
	assert.NoError(t, err)

	fraud := clf.Probability(vec.Transform("urgent wire transfer invoice pay immediately AMOUNT_BIN:HIGH"))
	legitimate := clf.Probability(vec.Transform("monthly invoice for your subscription AMOUNT_BIN:LOW"))
	assert.Greater(t, fraud, legitimate)
	assert.Greater(t, fraud, 0.5)
	assert.Less(t, legitimate, 0.5)

	assert.GreaterOrEqual(t, Accuracy(vec, clf, labeledExamples()), 0.75)
}

func TestFitVocabularyCap(t *testing.T) {
	vec, _, err := Fit(labeledExamples(), 10)
	assert.NoError(t, err)
	assert.Len(t, vec.Vocabulary, 10)
	assert.Len(t, vec.Idf, 10)
}

func TestFitRejectsSingleClass(t *testing.T) {
	_, _, err := Fit([]TrainingExample{
		{Text: "invoice", Label: 1},
		{Text: "urgent invoice", Label: 1},
	}, 100)
	assert.EqualError(t, err, "training data must contain both classes, got 2 positives of 2 examples")
}

func TestFitIsDeterministic(t *testing.T) {
	firstVec, firstClf, err := Fit(labeledExamples(), 1000)
	assert.NoError(t, err)
	secondVec, secondClf, err := Fit(labeledExamples(), 1000)
	assert.NoError(t, err)

	assert.Equal(t, firstVec.Vocabulary, secondVec.Vocabulary)
	assert.Equal(t, firstVec.Idf, secondVec.Idf)
	assert.Equal(t, firstClf.Weights, secondClf.Weights)
	assert.Equal(t, firstClf.Intercept, secondClf.Intercept)
}

func TestArtifactRoundTrip(t *testing.T) {
	vec, clf, err := Fit(labeledExamples(), 1000)
	assert.NoError(t, err)

	dir := t.TempDir()
	vectorizerPath := filepath.Join(dir, "vectorizer.json")
	classifierPath := filepath.Join(dir, "classifier.json")
	assert.NoError(t, SaveArtifacts(vec, clf, vectorizerPath, classifierPath))

	loadedVec, loadedClf, err := LoadArtifacts(vectorizerPath, classifierPath)
	assert.NoError(t, err)

	text := "urgent invoice wire transfer"
	assert.Equal(t, vec.Transform(text), loadedVec.Transform(text))
	assert.InDelta(t, clf.Probability(vec.Transform(text)), loadedClf.Probability(loadedVec.Transform(text)), 1e-12)
}
