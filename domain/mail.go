// SPDX-License-Identifier: GPL-3.0-or-later
package domain

//go:generate mockgen -destination=mocks/mail.go -package=mocks . MailSource,MessageDecoder

// Attachment describes one attachment part of a decoded message.
// Only metadata is carried through the pipeline; content inspection
// is limited to filename and declared media type.
type Attachment struct {
	Name  string
	Size  int
	IsPdf bool
}

// MessageRecord is the structured form of one raw mail message.
// It is immutable once decoded and owned by a single loop iteration.
type MessageRecord struct {
	Subject     string
	Sender      string
	ReplyTo     string
	Date        string
	Body        string
	Attachments []Attachment
	MessageId   string
}

func (m *MessageRecord) HasPdf() bool {
	for _, a := range m.Attachments {
		if a.IsPdf {
			return true
		}
	}
	return false
}

func (m *MessageRecord) AttachmentNames() []string {
	names := make([]string, len(m.Attachments))
	for i, a := range m.Attachments {
		names[i] = a.Name
	}
	return names
}

// MessageDecoder converts a raw mail payload into a MessageRecord.
type MessageDecoder interface {
	Decode(rawMail []byte) (*MessageRecord, error)
}

// MailSource is the mailbox collaborator. The scanner depends only on
// these verbs, not on a specific wire protocol.
type MailSource interface {
	Select(mailbox string, readOnly bool) error
	SearchAll() ([]uint32, error)
	FetchRaw(uid uint32) ([]byte, error)
	Noop() error
	Close() error
}
