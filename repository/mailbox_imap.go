package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"mail-digest/config"
	"mail-digest/domain"
)

// mailboxRepository fetches raw emails over IMAP. Each call dials a fresh
// connection; batch runs are minutes apart, so holding a session open buys
// nothing.
type mailboxRepository struct {
	logger *slog.Logger
	cfg    config.IMAPConfig
}

// NewMailboxRepository creates the IMAP-backed fetch collaborator.
func NewMailboxRepository(cfg config.IMAPConfig, logger *slog.Logger) MailboxRepository {
	return &mailboxRepository{
		logger: logger,
		cfg:    cfg,
	}
}

// FetchEmails retrieves messages matching the fetch rules, capped to the
// most recent rules.MaxMessages and returned in mailbox (oldest first)
// order. Outside dry runs, unread-mode fetches mark
// the returned messages seen so the next batch does not pick them up again.
func (r *mailboxRepository) FetchEmails(ctx context.Context, rules domain.FetchRules, dryRun bool) ([]*domain.RawEmail, error) {
	client, err := r.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(r.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("%w: failed to select %s: %v", domain.ErrMailboxUnavailable, r.cfg.Mailbox, err)
	}

	criteria := &imap.SearchCriteria{}
	switch rules.Mode {
	case domain.FetchModeUnread:
		criteria.NotFlag = []imap.Flag{imap.FlagSeen}
	case domain.FetchModeLastNDays:
		criteria.Since = time.Now().AddDate(0, 0, -rules.DaysBack)
	case domain.FetchModeAll:
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", domain.ErrMailboxUnavailable, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Most recent messages win when the mailbox exceeds the cap.
	if rules.MaxMessages > 0 && len(uids) > rules.MaxMessages {
		uids = uids[len(uids)-rules.MaxMessages:]
	}

	emails, err := r.fetchUIDs(client, imap.UIDSetNum(uids...))
	if err != nil {
		return nil, err
	}

	if !dryRun && rules.Mode == domain.FetchModeUnread {
		storeCmd := client.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			r.logger.WarnContext(ctx, "failed to mark messages seen", "error", err)
		}
	}

	r.logger.InfoContext(ctx, "fetched emails from mailbox",
		"mailbox", r.cfg.Mailbox,
		"mode", rules.Mode,
		"count", len(emails))

	return emails, nil
}

// FetchByID retrieves one message by its Message-ID header.
func (r *mailboxRepository) FetchByID(ctx context.Context, messageID string) (*domain.RawEmail, error) {
	if messageID == "" {
		return nil, domain.ErrMissingMessageID
	}

	client, err := r.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(r.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("%w: failed to select %s: %v", domain.ErrMailboxUnavailable, r.cfg.Mailbox, err)
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "Message-ID", Value: messageID},
		},
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", domain.ErrMailboxUnavailable, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailNotFound, messageID)
	}

	emails, err := r.fetchUIDs(client, imap.UIDSetNum(uids[0]))
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailNotFound, messageID)
	}

	r.logger.InfoContext(ctx, "fetched email by id", "message_id", messageID)

	return emails[0], nil
}

func (r *mailboxRepository) connect() (*imapclient.Client, error) {
	var client *imapclient.Client
	var err error

	if r.cfg.TLS {
		client, err = imapclient.DialTLS(r.cfg.Addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(r.cfg.Addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrMailboxUnavailable, r.cfg.Addr, err)
	}

	if err := client.Login(r.cfg.Username, r.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("%w: authentication failed for %s: %v", domain.ErrMailboxUnavailable, r.cfg.Username, err)
	}

	return client, nil
}

func (r *mailboxRepository) fetchUIDs(client *imapclient.Client, uidSet imap.UIDSet) ([]*domain.RawEmail, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)

	var emails []*domain.RawEmail
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			r.logger.Warn("failed to collect message, skipping", "error", err)
			continue
		}

		emails = append(emails, rawEmailFromBuffer(buf, bodySection))
	}

	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("%w: fetch failed: %v", domain.ErrMailboxUnavailable, err)
	}

	return emails, nil
}

func rawEmailFromBuffer(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) *domain.RawEmail {
	email := &domain.RawEmail{
		MessageID: fmt.Sprintf("uid-%d", buf.UID),
	}

	if buf.Envelope != nil {
		if buf.Envelope.MessageID != "" {
			email.MessageID = buf.Envelope.MessageID
		}
		email.Subject = buf.Envelope.Subject
		email.ReceivedAt = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				email.Sender = fmt.Sprintf("%s <%s>", from.Name, from.Addr())
			} else {
				email.Sender = from.Addr()
			}
		}
	}

	for _, flag := range buf.Flags {
		email.Labels = append(email.Labels, strings.TrimPrefix(string(flag), "\\"))
	}

	if raw := buf.FindBodySection(section); raw != nil {
		email.BodyText, email.BodyHTML, email.Attachments = parseMIMEBody(raw)
	}

	return email
}

// parseMIMEBody extracts the text/plain body, text/html body and attachment
// metadata from a raw RFC 5322 message.
func parseMIMEBody(raw []byte) (textBody, htmlBody string, attachments []domain.Attachment) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparsable MIME still has readable content more often than not.
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			attachments = append(attachments, domain.Attachment{
				Filename: filename,
				Size:     int64(len(body)),
				MIMEType: contentType,
			})
		}
	}

	return textBody, htmlBody, attachments
}
