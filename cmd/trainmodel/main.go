// SPDX-License-Identifier: GPL-3.0-or-later

// trainmodel is the offline batch job that produces the artifact pair
// consumed by the scanner. It reads a labeled table, builds the
// combined feature text per row with the same codec the scanner uses,
// fits the vectorizer + classifier pair and writes both files.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fraudwatch/go-imap-fraudwatch/features"
	"github.com/fraudwatch/go-imap-fraudwatch/log"
	"github.com/fraudwatch/go-imap-fraudwatch/riskmodel"

	"github.com/sirupsen/logrus"
)

const holdoutEvery = 4

func main() {
	csvPath := flag.String("csv", "labeled_invoices.csv", "labeled training table")
	vectorizerPath := flag.String("vectorizer", "vectorizer.json", "vectorizer artifact output")
	classifierPath := flag.String("classifier", "classifier.json", "classifier artifact output")
	vocabularyCap := flag.Int("vocab", 20000, "vocabulary size cap")
	loglevel := flag.String("loglevel", "info", "log level")
	flag.Parse()

	log.InitLogging(*loglevel)
	logger := log.Logger(log.LOG_RISKMODEL)

	examples, err := readLabeledTable(*csvPath)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not read training table")
	}

	// Deterministic holdout split, every 4th row is validation
	train, validation := []riskmodel.TrainingExample{}, []riskmodel.TrainingExample{}
	for i, e := range examples {
		if (i+1)%holdoutEvery == 0 {
			validation = append(validation, e)
		} else {
			train = append(train, e)
		}
	}

	logger.WithFields(logrus.Fields{"examples": len(examples), "train": len(train), "validation": len(validation)}).Info("Fitting model")

	vec, clf, err := riskmodel.Fit(train, *vocabularyCap)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not fit model")
	}

	logger.WithFields(logrus.Fields{
		"vocabulary": len(vec.Vocabulary),
		"train":      fmt.Sprintf("%.3f", riskmodel.Accuracy(vec, clf, train)),
		"validation": fmt.Sprintf("%.3f", riskmodel.Accuracy(vec, clf, validation)),
	}).Info("Fitted model, accuracy")

	err = riskmodel.SaveArtifacts(vec, clf, *vectorizerPath, *classifierPath)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not save artifacts")
	}

	logger.WithFields(logrus.Fields{"vectorizer": *vectorizerPath, "classifier": *classifierPath}).Info("Saved artifacts")
}

// readLabeledTable parses the labeled CSV: columns subject, body,
// from_domain, reply_domain, attachment_types, amount, label. Missing
// feature columns default to empty, label is required.
func readLabeledTable(path string) ([]riskmodel.TrainingExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("table %s has no data rows", path)
	}

	columns := map[string]int{}
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["label"]; !ok {
		return nil, fmt.Errorf("table %s is missing the label column", path)
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	examples := []riskmodel.TrainingExample{}
	for rowNumber, row := range records[1:] {
		label, err := strconv.Atoi(strings.TrimSpace(field(row, "label")))
		if err != nil {
			return nil, fmt.Errorf("row %d has a non-numeric label: %w", rowNumber+2, err)
		}

		combined := features.CombinedText(
			field(row, "subject"),
			field(row, "body"),
			field(row, "from_domain"),
			field(row, "reply_domain"),
			field(row, "attachment_types"),
			features.QuantizeAmountString(field(row, "amount")),
		)

		examples = append(examples, riskmodel.TrainingExample{Text: combined, Label: label})
	}

	return examples, nil
}
