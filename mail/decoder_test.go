// SPDX-License-Identifier: GPL-3.0-or-later
package mail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/stretchr/testify/assert"
)

// %PDF-1.4
const pdfPayloadBase64 = "JVBERi0xLjQ="

func invoiceMessage() []byte {
	return []byte(strings.Join([]string{
		"From: Bill <bill@acme.com>",
		"To: ops@corp.example",
		"Subject: Invoice #1234 due",
		"Date: Mon, 02 Jan 2006 15:04:05 -0700",
		"Message-ID: <abc123@acme.com>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=\"b1\"",
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Please pay $250.00 to acme.com",
		"--b1",
		"Content-Type: application/pdf; name=\"invoice.pdf\"",
		"Content-Disposition: attachment; filename=\"invoice.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		pdfPayloadBase64,
		"--b1--",
		"",
	}, "\r\n"))
}

func TestDecodeMultipartInvoice(t *testing.T) {
	log.InitLogging("error")

	record, err := NewDecoder().Decode(invoiceMessage())
	assert.NoError(t, err)

	assert.Equal(t, "Invoice #1234 due", record.Subject)
	assert.Equal(t, "Bill <bill@acme.com>", record.Sender)
	assert.Empty(t, record.ReplyTo)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", record.Date)
	assert.Equal(t, "<abc123@acme.com>", record.MessageId)
	assert.Equal(t, "Please pay $250.00 to acme.com", record.Body)

	assert.Len(t, record.Attachments, 1)
	assert.Equal(t, "invoice.pdf", record.Attachments[0].Name)
	assert.Equal(t, 8, record.Attachments[0].Size)
	assert.True(t, record.Attachments[0].IsPdf)
	assert.True(t, record.HasPdf())
	assert.Equal(t, []string{"invoice.pdf"}, record.AttachmentNames())
}

func TestDecodeEncodedWordSubject(t *testing.T) {
	log.InitLogging("error")

	raw := []byte(strings.Join([]string{
		"From: buchhaltung@firma.example",
		"Subject: =?UTF-8?Q?Rechnung_=C3=BCberf=C3=A4llig?=",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Bitte zahlen.",
		"",
	}, "\r\n"))

	record, err := NewDecoder().Decode(raw)
	assert.NoError(t, err)
	assert.Equal(t, "Rechnung überfällig", record.Subject)
	assert.Equal(t, "Bitte zahlen.", record.Body)
}

func TestDecodeSinglePartPlainText(t *testing.T) {
	log.InitLogging("error")

	raw := []byte(strings.Join([]string{
		"From: a@b.example",
		"Subject: hello",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"  just text  ",
		"",
	}, "\r\n"))

	record, err := NewDecoder().Decode(raw)
	assert.NoError(t, err)
	assert.Equal(t, "just text", record.Body)
	assert.Empty(t, record.Attachments)
}

func TestDecodeSinglePartHtmlYieldsEmptyBody(t *testing.T) {
	log.InitLogging("error")

	raw := []byte(strings.Join([]string{
		"From: a@b.example",
		"Subject: hello",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>only html</p>",
		"",
	}, "\r\n"))

	record, err := NewDecoder().Decode(raw)
	assert.NoError(t, err)
	assert.Empty(t, record.Body)
}

func TestDecodeAttachmentWithoutFilename(t *testing.T) {
	log.InitLogging("error")

	raw := []byte(strings.Join([]string{
		"From: a@b.example",
		"Subject: statement",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=\"b1\"",
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"see attached invoice",
		"--b1",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment",
		"Content-Transfer-Encoding: base64",
		"",
		pdfPayloadBase64,
		"--b1--",
		"",
	}, "\r\n"))

	record, err := NewDecoder().Decode(raw)
	assert.NoError(t, err)
	assert.Len(t, record.Attachments, 1)
	assert.Equal(t, FallbackAttachmentName, record.Attachments[0].Name)
	// Pdf detection falls back to the declared media type
	assert.True(t, record.Attachments[0].IsPdf)
}

func TestSavingDecoderWritesAttachment(t *testing.T) {
	log.InitLogging("error")

	dir := filepath.Join(t.TempDir(), "attachments")
	record, err := NewSavingDecoder(dir).Decode(invoiceMessage())
	assert.NoError(t, err)
	assert.Len(t, record.Attachments, 1)

	saved, err := os.ReadFile(filepath.Join(dir, "invoice.pdf"))
	assert.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(saved))
}

func TestShortSubject(t *testing.T) {
	assert.Equal(t, "short", ShortSubject("short"))
	long := strings.Repeat("x", 40)
	assert.Equal(t, strings.Repeat("x", 30)+"...", ShortSubject(long))
}
