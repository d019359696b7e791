// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Database   string
	LedgerPath string

	ImapHost string
	User     string
	Password string
	Mailbox  string

	Limit          int
	KeepaliveEvery int

	SaveAttachments bool
	AttachmentDir   string

	VectorizerPath string
	ClassifierPath string

	Loglevel *string
}

func ReadConfig(filename string) (*Config, error) {
	config := &Config{
		Database:       "scanjournal.db",
		LedgerPath:     "invoices.xlsx",
		Mailbox:        "INBOX",
		Limit:          200,
		KeepaliveEvery: 50,
		AttachmentDir:  "attachments",
		VectorizerPath: "vectorizer.json",
		ClassifierPath: "classifier.json",
	}

	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	// Secrets can be kept out of the config file; a .env file or the
	// process environment wins over the toml value.
	_ = godotenv.Load()
	if password := os.Getenv("IMAP_PASSWORD"); len(password) > 0 {
		config.Password = password
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if err := validateNonEmptyStringField(c.Database, "Database name must not be empty, set to a filename for the sqlite scan journal"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.LedgerPath, "LedgerPath must not be empty, set to a filename for the xlsx ledger"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.ImapHost, "ImapHost must not be empty, set to host:port of the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.User, "User must not be empty, set to username on the imap server"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Password, "Password must not be empty, set to password of User on the imap server or export IMAP_PASSWORD"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.Mailbox, "Mailbox must not be empty, set to the mailbox to scan"); err != nil {
		return err
	}

	if c.Limit <= 0 {
		return fmt.Errorf("Limit must be positive, got %d", c.Limit)
	}

	if c.KeepaliveEvery <= 0 {
		return fmt.Errorf("KeepaliveEvery must be positive, got %d", c.KeepaliveEvery)
	}

	if err := validateNonEmptyStringField(c.VectorizerPath, "VectorizerPath must not be empty, set to the vectorizer artifact file"); err != nil {
		return err
	}

	if err := validateNonEmptyStringField(c.ClassifierPath, "ClassifierPath must not be empty, set to the classifier artifact file"); err != nil {
		return err
	}

	if c.SaveAttachments {
		if err := validateNonEmptyStringField(c.AttachmentDir, "AttachmentDir must not be empty when SaveAttachments is enabled"); err != nil {
			return err
		}
	}

	return nil
}

func validateNonEmptyStringField(field string, err string) error {
	if len(strings.TrimSpace(field)) == 0 {
		return errors.New(err)
	}

	return nil
}
