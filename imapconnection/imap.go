// SPDX-License-Identifier: GPL-3.0-or-later
package imapconnection

import (
	"fmt"
	"io"

	"github.com/fraudwatch/go-imap-fraudwatch/domain"
	"github.com/fraudwatch/go-imap-fraudwatch/log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"
)

// ImapConnection implements domain.MailSource on a TLS IMAP session.
// The mailbox is only ever selected read-only; nothing here mutates
// server state.
type ImapConnection struct {
	connection *client.Client

	server, user string

	selectedMailbox string

	l *logrus.Logger
}

func NewImapConnection(server string, user string, password string) (*ImapConnection, error) {
	imapClient, err := client.DialTLS(server, nil)
	if err != nil {
		return nil, &domain.ConnectionError{Cause: fmt.Errorf("could not dial to imap: %w", err)}
	}

	err = imapClient.Login(user, password)
	if err != nil {
		return nil, &domain.ConnectionError{Cause: fmt.Errorf("could not login to imap: %w", err)}
	}

	conn := &ImapConnection{
		connection: imapClient,
		server:     server,
		user:       user,
		l:          log.Logger(log.LOG_IMAP),
	}

	conn.l.WithFields(logrus.Fields{"server": server, "user": user}).Debug("Logged in to server")

	return conn, nil
}

func (ic *ImapConnection) Select(mailbox string, readOnly bool) error {
	_, err := ic.connection.Select(mailbox, readOnly)
	if err != nil {
		return &domain.ConnectionError{Cause: fmt.Errorf("could not select mailbox %s: %w", mailbox, err)}
	}

	ic.selectedMailbox = mailbox
	ic.l.WithFields(logrus.Fields{"mailbox": mailbox, "readonly": readOnly}).Debug("Selected mailbox")
	return nil
}

func (ic *ImapConnection) SearchAll() ([]uint32, error) {
	// Empty criteria matches every message in the selected mailbox
	criteria := imap.NewSearchCriteria()
	uids, err := ic.connection.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("could not list mailbox: %w", err)
	}

	return uids, nil
}

func (ic *ImapConnection) FetchRaw(uid uint32) ([]byte, error) {
	seqset := &imap.SeqSet{}
	seqset.AddNum(uid)

	fullBodySection := &imap.BodySectionName{
		Peek: true,
	}
	fetchItems := []imap.FetchItem{fullBodySection.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- ic.connection.UidFetch(seqset, fetchItems, messages)
	}()

	var rawMail []byte
	for msg := range messages {
		r := msg.GetBody(fullBodySection)
		if r == nil {
			continue
		}

		body, err := io.ReadAll(r)
		if err != nil {
			return nil, &domain.FetchError{Uid: uid, Cause: fmt.Errorf("could not read mail body: %w", err)}
		}
		rawMail = body
	}

	err := <-done
	if err != nil {
		return nil, &domain.FetchError{Uid: uid, Cause: err}
	}

	if rawMail == nil {
		return nil, &domain.FetchError{Uid: uid, Cause: fmt.Errorf("server returned no body")}
	}

	return rawMail, nil
}

func (ic *ImapConnection) Noop() error {
	return ic.connection.Noop()
}

func (ic *ImapConnection) Close() error {
	return ic.connection.Logout()
}
