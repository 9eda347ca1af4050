// Package mailshare mails an exported CSV file as an attachment over SMTP.
package mailshare

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Config holds SMTP relay settings. Username empty skips authentication.
type Config struct {
	Addr     string
	Username string
	Password string
	From     string
	// Insecure dials plain TCP instead of implicit TLS, for local relays.
	Insecure bool
}

// Send mails the file at path to every address in to.
func Send(cfg Config, to []string, path string) error {
	recipients := Recipients(to)
	if len(recipients) == 0 {
		return errors.New("mailshare: at least one recipient is required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = strings.TrimSpace(cfg.Username)
	}
	if from == "" {
		return errors.New("mailshare: sender address is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mailshare: reading %s failed: %w", path, err)
	}
	raw, err := buildMessage(from, recipients, filepath.Base(path), data, time.Now())
	if err != nil {
		return err
	}

	smtpClient, err := connect(cfg)
	if err != nil {
		return err
	}
	defer smtpClient.Close()

	if err := smtpClient.Mail(from, nil); err != nil {
		return fmt.Errorf("mailshare: MAIL FROM failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := smtpClient.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("mailshare: RCPT TO %q failed: %w", rcpt, err)
		}
	}

	writer, err := smtpClient.Data()
	if err != nil {
		return fmt.Errorf("mailshare: DATA failed: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("mailshare: writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mailshare: finalizing message failed: %w", err)
	}
	if err := smtpClient.Quit(); err != nil {
		return fmt.Errorf("mailshare: QUIT failed: %w", err)
	}
	return nil
}

func connect(cfg Config) (*smtp.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("mailshare: SMTP address is required")
	}

	var (
		conn net.Conn
		err  error
	)
	if cfg.Insecure {
		conn, err = net.Dial("tcp", addr)
	} else {
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return nil, fmt.Errorf("mailshare: invalid address %q: %w", addr, splitErr)
		}
		conn, err = tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	}
	if err != nil {
		return nil, fmt.Errorf("mailshare: SMTP dial failed: %w", err)
	}

	smtpClient := smtp.NewClient(conn)
	if strings.TrimSpace(cfg.Username) == "" {
		return smtpClient, nil
	}
	auth := sasl.NewPlainClient("", strings.TrimSpace(cfg.Username), cfg.Password)
	if err := smtpClient.Auth(auth); err != nil {
		smtpClient.Close()
		return nil, fmt.Errorf("mailshare: SMTP auth failed: %w", err)
	}
	return smtpClient, nil
}

func buildMessage(from string, to []string, filename string, data []byte, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	body := multipart.NewWriter(&buf)

	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", "SMS export "+filename)),
		fmt.Sprintf("Date: %s", now.Format(time.RFC1123Z)),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", body.Boundary()),
	}

	text, err := body.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("mailshare: building message failed: %w", err)
	}
	fmt.Fprintf(text, "Attached: %s\r\n", filename)

	attachment, err := body.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType("text/csv", map[string]string{"charset": "UTF-8", "name": filename})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": filename})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("mailshare: building attachment failed: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		fmt.Fprintf(attachment, "%s\r\n", encoded[:76])
		encoded = encoded[76:]
	}
	fmt.Fprintf(attachment, "%s\r\n", encoded)

	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("mailshare: building message failed: %w", err)
	}
	return append([]byte(strings.Join(headers, "\r\n")+"\r\n\r\n"), buf.Bytes()...), nil
}

// Recipients trims to and drops blanks and case-insensitive duplicates. Send
// mails exactly this list.
func Recipients(to []string) []string {
	out := make([]string, 0, len(to))
	seen := map[string]struct{}{}
	for _, rcpt := range to {
		rcpt = strings.TrimSpace(rcpt)
		if rcpt == "" {
			continue
		}
		key := strings.ToLower(rcpt)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rcpt)
	}
	return out
}
