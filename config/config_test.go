// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const validToml = `ImapHost = "imap.example.com:993"
User = "scanner"
Password = "secret"
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(filename, []byte(content), 0600)
	assert.NoError(t, err)
	return filename
}

func TestReadConfigDefaults(t *testing.T) {
	conf, err := ReadConfig(writeConfigFile(t, validToml))

	assert.NoError(t, err)
	assert.Equal(t, "scanjournal.db", conf.Database)
	assert.Equal(t, "invoices.xlsx", conf.LedgerPath)
	assert.Equal(t, "INBOX", conf.Mailbox)
	assert.Equal(t, 200, conf.Limit)
	assert.Equal(t, 50, conf.KeepaliveEvery)
	assert.False(t, conf.SaveAttachments)
	assert.Equal(t, "attachments", conf.AttachmentDir)
	assert.Equal(t, "vectorizer.json", conf.VectorizerPath)
	assert.Equal(t, "classifier.json", conf.ClassifierPath)
	assert.Nil(t, conf.Loglevel)
}

func TestReadConfigOverrides(t *testing.T) {
	conf, err := ReadConfig(writeConfigFile(t, validToml+`
Database = "runs.db"
LedgerPath = "out/ledger.xlsx"
Mailbox = "Invoices"
Limit = 25
KeepaliveEvery = 5
SaveAttachments = true
AttachmentDir = "saved"
Loglevel = "debug"
`))

	assert.NoError(t, err)
	assert.Equal(t, "runs.db", conf.Database)
	assert.Equal(t, "out/ledger.xlsx", conf.LedgerPath)
	assert.Equal(t, "Invoices", conf.Mailbox)
	assert.Equal(t, 25, conf.Limit)
	assert.Equal(t, 5, conf.KeepaliveEvery)
	assert.True(t, conf.SaveAttachments)
	assert.Equal(t, "saved", conf.AttachmentDir)
	assert.Equal(t, "debug", *conf.Loglevel)
}

func TestReadConfigPasswordFromEnvironment(t *testing.T) {
	t.Setenv("IMAP_PASSWORD", "from-environment")

	conf, err := ReadConfig(writeConfigFile(t, validToml))

	assert.NoError(t, err)
	assert.Equal(t, "from-environment", conf.Password)
}

func TestReadConfigMissingFile(t *testing.T) {
	conf, err := ReadConfig(filepath.Join(t.TempDir(), "nonexistent.toml"))

	assert.Nil(t, conf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not read config file")
}

func TestReadConfigValidation(t *testing.T) {
	t.Setenv("IMAP_PASSWORD", "")

	tests := []struct {
		name string
		toml string
		err  string
	}{
		{
			"missing host",
			`User = "scanner"
Password = "secret"`,
			"ImapHost must not be empty, set to host:port of the imap server",
		},
		{
			"missing user",
			`ImapHost = "imap.example.com:993"
Password = "secret"`,
			"User must not be empty, set to username on the imap server",
		},
		{
			"missing password",
			`ImapHost = "imap.example.com:993"
User = "scanner"`,
			"Password must not be empty, set to password of User on the imap server or export IMAP_PASSWORD",
		},
		{
			"blank mailbox",
			validToml + `Mailbox = " "`,
			"Mailbox must not be empty, set to the mailbox to scan",
		},
		{
			"zero limit",
			validToml + `Limit = 0`,
			"Limit must be positive, got 0",
		},
		{
			"negative keepalive",
			validToml + `KeepaliveEvery = -3`,
			"KeepaliveEvery must be positive, got -3",
		},
		{
			"empty ledger path",
			validToml + `LedgerPath = ""`,
			"LedgerPath must not be empty, set to a filename for the xlsx ledger",
		},
		{
			"empty vectorizer path",
			validToml + `VectorizerPath = ""`,
			"VectorizerPath must not be empty, set to the vectorizer artifact file",
		},
		{
			"attachment dir required when saving",
			validToml + `SaveAttachments = true
AttachmentDir = ""`,
			"AttachmentDir must not be empty when SaveAttachments is enabled",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf, err := ReadConfig(writeConfigFile(t, tc.toml))

			assert.Nil(t, conf)
			assert.EqualError(t, err, tc.err)
		})
	}
}
