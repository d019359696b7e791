// SPDX-License-Identifier: GPL-3.0-or-later
package riskmodel

import (
	"fmt"
	"math"
	"sort"
)

const (
	trainEpochs       = 200
	trainLearningRate = 2.0
	trainL2           = 1e-4
)

// TrainingExample is one labeled combined feature text. Label is 0
// (legitimate) or 1 (fraud).
type TrainingExample struct {
	Text  string
	Label int
}

// Fit builds an artifact pair from labeled combined texts: a tf-idf
// vectorizer over unigrams and bigrams capped at vocabularyCap terms,
// and a class-balanced logistic regression fitted by gradient descent.
func Fit(examples []TrainingExample, vocabularyCap int) (*Vectorizer, *Classifier, error) {
	if vocabularyCap <= 0 {
		return nil, nil, fmt.Errorf("vocabulary cap must be positive, got %d", vocabularyCap)
	}

	positives := 0
	for _, e := range examples {
		if e.Label != 0 {
			positives++
		}
	}
	if positives == 0 || positives == len(examples) {
		return nil, nil, fmt.Errorf("training data must contain both classes, got %d positives of %d examples", positives, len(examples))
	}

	vec := fitVectorizer(examples, vocabularyCap)

	rows := make([]map[int]float64, len(examples))
	for i, e := range examples {
		rows[i] = vec.Transform(e.Text)
	}

	clf := fitClassifier(rows, examples, len(vec.Vocabulary), positives)

	return vec, clf, nil
}

// Accuracy is the fraction of examples whose rounded prediction
// matches the label, for held-out validation reporting.
func Accuracy(vec *Vectorizer, clf *Classifier, examples []TrainingExample) float64 {
	if len(examples) == 0 {
		return 0
	}

	correct := 0
	for _, e := range examples {
		predicted := 0
		if clf.Probability(vec.Transform(e.Text)) >= 0.5 {
			predicted = 1
		}
		if predicted == e.Label {
			correct++
		}
	}

	return float64(correct) / float64(len(examples))
}

func fitVectorizer(examples []TrainingExample, vocabularyCap int) *Vectorizer {
	vec := &Vectorizer{
		FormatVersion: FormatVersion,
		NgramMax:      2,
		Lowercase:     true,
	}

	documentFrequency := map[string]int{}
	for _, e := range examples {
		seen := map[string]bool{}
		for _, term := range vec.Tokenize(e.Text) {
			if !seen[term] {
				seen[term] = true
				documentFrequency[term]++
			}
		}
	}

	terms := make([]string, 0, len(documentFrequency))
	for term := range documentFrequency {
		terms = append(terms, term)
	}

	// Keep the most document-frequent terms, ties alphabetical, then
	// assign columns in alphabetical order so artifacts are
	// reproducible run to run.
	sort.Slice(terms, func(i, j int) bool {
		if documentFrequency[terms[i]] != documentFrequency[terms[j]] {
			return documentFrequency[terms[i]] > documentFrequency[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > vocabularyCap {
		terms = terms[:vocabularyCap]
	}
	sort.Strings(terms)

	documents := float64(len(examples))
	vec.Vocabulary = make(map[string]int, len(terms))
	vec.Idf = make([]float64, len(terms))
	vec.terms = terms
	for column, term := range terms {
		vec.Vocabulary[term] = column
		vec.Idf[column] = math.Log((1+documents)/(1+float64(documentFrequency[term]))) + 1
	}

	return vec
}

func fitClassifier(rows []map[int]float64, examples []TrainingExample, columns, positives int) *Classifier {
	clf := &Classifier{
		FormatVersion: FormatVersion,
		Weights:       make([]float64, columns),
	}

	// Balanced class weighting: each class contributes equally to the
	// gradient regardless of its share of the examples.
	total := float64(len(examples))
	positiveWeight := total / (2 * float64(positives))
	negativeWeight := total / (2 * (total - float64(positives)))

	for epoch := 0; epoch < trainEpochs; epoch++ {
		gradient := make([]float64, columns)
		interceptGradient := 0.0

		for i, row := range rows {
			label := 0.0
			classWeight := negativeWeight
			if examples[i].Label != 0 {
				label = 1.0
				classWeight = positiveWeight
			}

			residual := classWeight * (clf.Probability(row) - label)
			for column, value := range row {
				gradient[column] += residual * value
			}
			interceptGradient += residual
		}

		scale := trainLearningRate / total
		for column := 0; column < columns; column++ {
			clf.Weights[column] -= scale * (gradient[column] + trainL2*clf.Weights[column])
		}
		clf.Intercept -= scale * interceptGradient
	}

	return clf
}
