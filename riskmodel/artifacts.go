// SPDX-License-Identifier: GPL-3.0-or-later
package riskmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

// FormatVersion is written into both artifact files; the loader
// rejects a pair whose versions disagree so a stale half-pair fails
// loudly instead of skewing scores.
const FormatVersion = 1

var tokenPattern = regexp.MustCompile(`[0-9A-Za-z_]{2,}`)

// Vectorizer is the persisted tf-idf half of the artifact pair.
type Vectorizer struct {
	FormatVersion int            `json:"format_version"`
	Vocabulary    map[string]int `json:"vocabulary"`
	Idf           []float64      `json:"idf"`
	NgramMax      int            `json:"ngram_max"`
	Lowercase     bool           `json:"lowercase"`

	// terms is the reverse vocabulary lookup, built on load.
	terms []string
}

// Classifier is the persisted linear half of the artifact pair.
type Classifier struct {
	FormatVersion int       `json:"format_version"`
	Weights       []float64 `json:"weights"`
	Intercept     float64   `json:"intercept"`
}

func LoadArtifacts(vectorizerPath, classifierPath string) (*Vectorizer, *Classifier, error) {
	vec := &Vectorizer{}
	err := readJson(vectorizerPath, vec)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load vectorizer: %w", err)
	}

	clf := &Classifier{}
	err = readJson(classifierPath, clf)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load classifier: %w", err)
	}

	err = validatePair(vec, clf)
	if err != nil {
		return nil, nil, err
	}

	vec.terms = make([]string, len(vec.Vocabulary))
	for term, column := range vec.Vocabulary {
		vec.terms[column] = term
	}

	return vec, clf, nil
}

func SaveArtifacts(vec *Vectorizer, clf *Classifier, vectorizerPath, classifierPath string) error {
	err := writeJson(vectorizerPath, vec)
	if err != nil {
		return fmt.Errorf("could not save vectorizer: %w", err)
	}

	err = writeJson(classifierPath, clf)
	if err != nil {
		return fmt.Errorf("could not save classifier: %w", err)
	}

	return nil
}

// Tokenize splits text into the terms the vectorizer indexes on:
// lower-cased alphanumeric runs of at least two characters, plus
// adjacent-pair bigrams when NgramMax permits.
func (v *Vectorizer) Tokenize(text string) []string {
	if v.Lowercase {
		text = strings.ToLower(text)
	}

	unigrams := tokenPattern.FindAllString(text, -1)
	if v.NgramMax < 2 {
		return unigrams
	}

	terms := make([]string, 0, 2*len(unigrams))
	terms = append(terms, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		terms = append(terms, unigrams[i]+" "+unigrams[i+1])
	}

	return terms
}

// Transform maps text to sparse l2-normalized tf-idf values keyed by
// vocabulary column. Terms outside the vocabulary are dropped.
func (v *Vectorizer) Transform(text string) map[int]float64 {
	counts := map[int]float64{}
	for _, term := range v.Tokenize(text) {
		column, ok := v.Vocabulary[term]
		if !ok {
			continue
		}
		counts[column]++
	}

	norm := 0.0
	for column := range counts {
		counts[column] *= v.Idf[column]
		norm += counts[column] * counts[column]
	}

	if norm > 0 {
		scale := 1 / math.Sqrt(norm)
		for column := range counts {
			counts[column] *= scale
		}
	}

	return counts
}

func readJson(path string, target interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	err = json.Unmarshal(raw, target)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}

	return nil
}

func writeJson(path string, source interface{}) error {
	raw, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("could not serialize for %s: %w", path, err)
	}

	return os.WriteFile(path, raw, 0o644)
}
