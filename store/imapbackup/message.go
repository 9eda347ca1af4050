package imapbackup

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/spachava753/smscview/sms"
)

const (
	headerID            = "X-smssync-id"
	headerType          = "X-smssync-type"
	headerAddress       = "X-smssync-address"
	headerDate          = "X-smssync-date"
	headerServiceCenter = "X-smssync-service_center"
)

// backupMessage is one parsed backup mail. Nil pointers are absent headers.
type backupMessage struct {
	UID           uint32
	ID            int64
	Type          string
	Address       *string
	ServiceCenter *string
	Date          int64
	Body          *string
}

func (m backupMessage) value(column sms.Column) (any, bool) {
	switch column {
	case sms.ColumnID:
		return m.ID, true
	case sms.ColumnDate:
		return m.Date, true
	case sms.ColumnAddress:
		return optional(m.Address)
	case sms.ColumnServiceCenter:
		return optional(m.ServiceCenter)
	case sms.ColumnBody:
		return optional(m.Body)
	default:
		return nil, false
	}
}

func (m backupMessage) orderKey(column sms.Column) int64 {
	if column == sms.ColumnID {
		return m.ID
	}
	return m.Date
}

func optional(value *string) (any, bool) {
	if value == nil {
		return nil, false
	}
	return *value, true
}

func parseBackupMessage(raw []byte) (backupMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return backupMessage{}, err
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return backupMessage{}, err
	}

	parsed := headerFields(msg.Header)
	text, found, err := extractText(textproto.MIMEHeader(msg.Header), body)
	if err != nil {
		return backupMessage{}, err
	}
	if found {
		text = strings.TrimRight(text, "\r\n")
		parsed.Body = &text
	}
	return parsed, nil
}

// parseBackupHeader parses a header-only fetch. The blank line ending the
// header block may be missing.
func parseBackupHeader(raw []byte) (backupMessage, error) {
	msg, err := mail.ReadMessage(io.MultiReader(bytes.NewReader(raw), strings.NewReader("\r\n")))
	if err != nil {
		return backupMessage{}, err
	}
	return headerFields(msg.Header), nil
}

func headerFields(header mail.Header) backupMessage {
	parsed := backupMessage{
		ID:            parseInt(header.Get(headerID)),
		Type:          strings.TrimSpace(header.Get(headerType)),
		Address:       headerValue(header, headerAddress),
		ServiceCenter: headerValue(header, headerServiceCenter),
		Date:          parseInt(header.Get(headerDate)),
	}
	if parsed.Date == 0 {
		if date, err := header.Date(); err == nil {
			parsed.Date = date.UnixMilli()
		}
	}
	return parsed
}

// headerValue returns nil for an absent or "null" header; backup apps write
// the literal null for missing columns.
func headerValue(header mail.Header, key string) *string {
	values, ok := header[textproto.CanonicalMIMEHeaderKey(key)]
	if !ok || len(values) == 0 {
		return nil
	}
	value := strings.TrimSpace(values[0])
	if value == "null" {
		return nil
	}
	return &value
}

func extractText(header textproto.MIMEHeader, body []byte) (string, bool, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	decoded, err := decodeTransferEncoding(header.Get("Content-Transfer-Encoding"), body)
	if err != nil {
		return "", false, err
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", false, nil
		}
		reader := multipart.NewReader(bytes.NewReader(decoded), boundary)
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				return "", false, nil
			}
			if err != nil {
				return "", false, err
			}
			partBody, err := io.ReadAll(part)
			if err != nil {
				return "", false, err
			}
			text, found, err := extractText(textproto.MIMEHeader(part.Header), partBody)
			if err != nil {
				return "", false, err
			}
			if found {
				return text, true, nil
			}
		}
	}

	if mediaType != "text/plain" {
		return "", false, nil
	}
	return string(decoded), true, nil
}

func decodeTransferEncoding(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
	case "base64":
		clean := strings.NewReplacer("\r", "", "\n", "").Replace(string(body))
		decoded, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return body, nil
		}
		return decoded, nil
	default:
		return body, nil
	}
}

func parseInt(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
