package imapbackup

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/rs/zerolog"

	"github.com/spachava753/smscview/sms"
)

// DefaultMailbox is the folder SMS Backup+ writes to.
const DefaultMailbox = "SMS"

const (
	messageTypeInbox = "1"
	messageTypeSent  = "2"
)

// Config holds connection settings.
type Config struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// Insecure dials plain TCP instead of implicit TLS.
	Insecure bool
}

// Store is an IMAP-backed sms.Store. It is not safe for concurrent use.
type Store struct {
	client  *client.Client
	mailbox string
	log     *zerolog.Logger
}

// Dial connects and authenticates. A nil logger disables logging.
func Dial(cfg Config, logger *zerolog.Logger) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("imapbackup: address is required")
	}
	if strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, errors.New("imapbackup: username and password are required")
	}

	var (
		imapClient *client.Client
		err        error
	)
	if cfg.Insecure {
		imapClient, err = client.Dial(addr)
	} else {
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return nil, fmt.Errorf("imapbackup: invalid address %q: %w", addr, splitErr)
		}
		imapClient, err = client.DialTLS(addr, &tls.Config{ServerName: host})
	}
	if err != nil {
		return nil, fmt.Errorf("imapbackup: IMAP dial failed: %w", err)
	}

	auth := sasl.NewPlainClient("", strings.TrimSpace(cfg.Username), cfg.Password)
	if err := imapClient.Authenticate(auth); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("imapbackup: IMAP authentication failed: %w", err)
	}

	mailbox := strings.TrimSpace(cfg.Mailbox)
	if mailbox == "" {
		mailbox = DefaultMailbox
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{client: imapClient, mailbox: mailbox, log: logger}, nil
}

// Close logs out.
func (s *Store) Close() error {
	return s.client.Logout()
}

// Authorization reports whether the backup folder can be selected.
func (s *Store) Authorization(ctx context.Context) sms.AuthStatus {
	if ctx.Err() != nil {
		return sms.AuthStatusUnavailable
	}
	if _, err := s.client.Select(s.mailbox, true); err != nil {
		return sms.AuthStatusUnavailable
	}
	return sms.AuthStatusAuthorized
}

// Query returns the backed-up messages of q.Box, newest first, capped at q.Limit.
// Only the ordering headers are fetched for every candidate; full bodies are
// fetched for the messages that make the cut. A mail that cannot be parsed is
// logged and skipped.
func (s *Store) Query(ctx context.Context, q sms.Query) ([]sms.Row, error) {
	messageType, err := boxType(q.Box)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := s.client.Select(s.mailbox, true); err != nil {
		return nil, fmt.Errorf("imapbackup: selecting %q failed: %w", s.mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add(headerType, messageType)
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imapbackup: searching %q failed: %w", s.mailbox, err)
	}

	headers, err := s.fetch(ctx, uids, orderingSection, parseBackupHeader)
	if err != nil {
		return nil, err
	}
	// HEADER search is a substring match; keep exact types only.
	candidates := headers[:0]
	for _, msg := range headers {
		if msg.Type == messageType {
			candidates = append(candidates, msg)
		}
	}
	sortMessages(candidates, q)

	var messages []backupMessage
	for len(candidates) > 0 && (q.Limit <= 0 || len(messages) < q.Limit) {
		n := len(candidates)
		if q.Limit > 0 {
			n = min(n, q.Limit-len(messages))
		}
		batch := make([]uint32, 0, n)
		for _, msg := range candidates[:n] {
			batch = append(batch, msg.UID)
		}
		candidates = candidates[n:]

		fetched, err := s.fetch(ctx, batch, fullSection, parseBackupMessage)
		if err != nil {
			return nil, err
		}
		messages = append(messages, fetched...)
	}
	return project(messages, q), nil
}

var (
	orderingSection = &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    []string{headerID, headerType, headerDate, "Date"},
		},
		Peek: true,
	}
	fullSection = &imap.BodySectionName{Peek: true}
)

func (s *Store) fetch(ctx context.Context, uids []uint32, section *imap.BodySectionName, parse func([]byte) (backupMessage, error)) ([]backupMessage, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	fetched := make(chan *imap.Message, len(uids)+8)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, fetched)
	}()

	out := make([]backupMessage, 0, len(uids))
	var readErr error
	for msg := range fetched {
		if readErr != nil || ctx.Err() != nil {
			continue
		}
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		raw, err := io.ReadAll(literal)
		if err != nil {
			readErr = fmt.Errorf("imapbackup: reading message %d failed: %w", msg.Uid, err)
			continue
		}
		parsed, err := parse(raw)
		if err != nil {
			s.log.Warn().Err(err).Uint32("uid", msg.Uid).Str("mailbox", s.mailbox).Msg("skipping unreadable backup message")
			continue
		}
		parsed.UID = msg.Uid
		out = append(out, parsed)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imapbackup: fetching messages failed: %w", err)
	}
	if readErr != nil {
		return nil, readErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func sortMessages(messages []backupMessage, q sms.Query) {
	if q.OrderBy == "" {
		return
	}
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i].orderKey(q.OrderBy), messages[j].orderKey(q.OrderBy)
		if q.Descending {
			return a > b
		}
		return a < b
	})
}

func project(messages []backupMessage, q sms.Query) []sms.Row {
	sortMessages(messages, q)
	if q.Limit > 0 && len(messages) > q.Limit {
		messages = messages[:q.Limit]
	}

	rows := make([]sms.Row, 0, len(messages))
	for _, msg := range messages {
		row := make(sms.Row, len(q.Columns))
		for _, column := range q.Columns {
			if value, ok := msg.value(column); ok {
				row[column] = value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func boxType(box sms.Box) (string, error) {
	switch box {
	case sms.BoxInbox:
		return messageTypeInbox, nil
	case sms.BoxSent:
		return messageTypeSent, nil
	default:
		return "", fmt.Errorf("imapbackup: unknown box %q", box)
	}
}
