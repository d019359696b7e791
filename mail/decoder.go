// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail decodes a raw mail payload into a structured
// MessageRecord. Header decoding is best-effort: a value that cannot be
// decoded is carried through raw rather than failing the message.
package mail

import (
	"bytes"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/emersion/go-message/charset"
	"github.com/jhillyerd/enmime"
	"github.com/sirupsen/logrus"
)

const FallbackAttachmentName = "unnamed"

type Decoder struct {
	saveAttachments bool
	attachmentDir   string

	l *logrus.Logger
}

func NewDecoder() *Decoder {
	return &Decoder{
		l: log.Logger(log.LOG_DECODER),
	}
}

// NewSavingDecoder returns a decoder that additionally persists every
// attachment payload below dir. A failed write is logged and skipped,
// never fatal for the message.
func NewSavingDecoder(dir string) *Decoder {
	return &Decoder{
		saveAttachments: true,
		attachmentDir:   dir,
		l:               log.Logger(log.LOG_DECODER),
	}
}

func (d *Decoder) Decode(rawMail []byte) (*domain.MessageRecord, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(rawMail))
	if err != nil {
		return nil, &domain.DecodeError{Cause: err}
	}

	record := &domain.MessageRecord{
		Subject:     decodeHeaderValue(envelope.GetHeader("Subject")),
		Sender:      decodeHeaderValue(envelope.GetHeader("From")),
		ReplyTo:     decodeHeaderValue(envelope.GetHeader("Reply-To")),
		Date:        decodeHeaderValue(envelope.GetHeader("Date")),
		MessageId:   decodeHeaderValue(envelope.GetHeader("Message-ID")),
		Body:        textBody(envelope.Root),
		Attachments: d.attachments(envelope),
	}

	return record, nil
}

// textBody concatenates the plain-text parts of the message in
// document order, skipping parts flagged as attachments. A single-part
// plain-text message yields its own text, any other single-part
// message yields "".
func textBody(part *enmime.Part) string {
	texts := []string{}
	collectTextParts(part, &texts)
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

func collectTextParts(part *enmime.Part, texts *[]string) {
	if part == nil {
		return
	}

	if part.ContentType == "text/plain" && !strings.EqualFold(part.Disposition, "attachment") {
		*texts = append(*texts, string(part.Content))
	}

	for child := part.FirstChild; child != nil; child = child.NextSibling {
		collectTextParts(child, texts)
	}
}

func (d *Decoder) attachments(envelope *enmime.Envelope) []domain.Attachment {
	attachments := []domain.Attachment{}
	for _, part := range envelope.Attachments {
		name := decodeHeaderValue(part.FileName)
		if len(strings.TrimSpace(name)) == 0 {
			name = FallbackAttachmentName
		}

		isPdf := part.ContentType == "application/pdf" || strings.HasSuffix(strings.ToLower(name), ".pdf")

		if d.saveAttachments && len(part.Content) > 0 {
			d.saveAttachment(name, part.Content)
		}

		attachments = append(
			attachments,
			domain.Attachment{
				Name:  name,
				Size:  len(part.Content),
				IsPdf: isPdf,
			},
		)
	}

	return attachments
}

func (d *Decoder) saveAttachment(name string, content []byte) {
	err := os.MkdirAll(d.attachmentDir, 0o755)
	if err != nil {
		d.l.WithFields(logrus.Fields{"dir": d.attachmentDir, "error": err}).Warn("Could not create attachment dir")
		return
	}

	target := filepath.Join(d.attachmentDir, filepath.Base(name))
	err = os.WriteFile(target, content, 0o644)
	if err != nil {
		d.l.WithFields(logrus.Fields{"file": target, "error": err}).Warn("Could not save attachment")
	}
}

// decodeHeaderValue decodes RFC 2047 encoded-word residue in a header
// value, falling back to the raw value on any decoding failure.
func decodeHeaderValue(raw string) string {
	if len(raw) == 0 {
		return ""
	}

	dec := &mime.WordDecoder{
		CharsetReader: charset.Reader,
	}
	decoded, err := dec.DecodeHeader(raw)
	if err != nil {
		return raw
	}

	return decoded
}

func ShortSubject(subject string) string {
	if (len(subject)) > 30 {
		subject = subject[:30] + "..."
	}
	return subject
}
