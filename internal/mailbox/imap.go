package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// TLSDialer dials IMAP over TLS. When Server is empty the host is resolved
// from the address domain.
type TLSDialer struct {
	Server      string // host:port override; resolved per address when empty
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// NewTLSDialer creates a TLS IMAP dialer.
func NewTLSDialer(server string, dialTimeout time.Duration, logger *slog.Logger) *TLSDialer {
	return &TLSDialer{
		Server:      server,
		DialTimeout: dialTimeout,
		Logger:      logger.With("component", "imap"),
	}
}

// Dial connects, authenticates and selects INBOX. Any error here is an
// authentication-or-connectivity failure from the caller's point of view.
func (d *TLSDialer) Dial(ctx context.Context, address, password string) (Session, error) {
	server := d.Server
	if server == "" {
		server = ResolveServer(address)
	}

	timeout := d.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", server, err)
	}

	// Honor the remaining context budget on every command; a hung server
	// must not stall a poll cycle past its deadline.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}
	imapClient.Timeout = timeout

	if err := imapClient.Login(address, password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	mbox, err := imapClient.Select("INBOX", false)
	if err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	d.Logger.Debug("mailbox opened", "server", server, "messages", mbox.Messages)

	return &imapSession{client: imapClient, mbox: mbox, logger: d.Logger}, nil
}

type imapSession struct {
	client *client.Client
	mbox   *imap.MailboxStatus
	logger *slog.Logger
}

func (s *imapSession) MessageCount() (uint32, error) {
	return s.mbox.Messages, nil
}

func (s *imapSession) SearchUnseenSince(since time.Time) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Since = since

	ids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return ids, nil
}

func (s *imapSession) Fetch(id uint32) (*Message, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(id)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("message %d not found", id)
	}

	return s.parseMessage(fetched, section), nil
}

// parseMessage decodes envelope and MIME parts into a Message.
func (s *imapSession) parseMessage(msg *imap.Message, section *imap.BodySectionName) *Message {
	decoded := &Message{ID: msg.Uid}

	if msg.Envelope != nil {
		decoded.Subject = msg.Envelope.Subject
		decoded.Date = msg.Envelope.Date
		if len(msg.Envelope.From) > 0 {
			from := msg.Envelope.From[0]
			decoded.SenderName = from.PersonalName
			decoded.SenderAddr = from.Address()
		}
	}
	if decoded.SenderName == "" && decoded.SenderAddr != "" {
		decoded.SenderName = strings.SplitN(decoded.SenderAddr, "@", 2)[0]
	}

	bodyReader := msg.GetBody(section)
	if bodyReader == nil {
		return decoded
	}

	mr, err := mail.CreateReader(bodyReader)
	if err != nil {
		s.logger.Warn("failed to create mail reader", "uid", msg.Uid, "error", err)
		return decoded
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("failed to read part", "uid", msg.Uid, "error", err)
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/plain") && decoded.BodyText == "":
			decoded.BodyText = string(body)
		case strings.HasPrefix(ct, "text/html") && decoded.BodyHTML == "":
			decoded.BodyHTML = string(body)
		}
	}

	return decoded
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}
