package sms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLimit is the record cap used when a caller has no explicit value.
const DefaultLimit = 100

const (
	// UnknownAddress replaces a missing sender/recipient.
	UnknownAddress = "(unknown)"
	// NoServiceCenter replaces a missing service-center address.
	NoServiceCenter = "(none)"
)

var (
	// ErrInvalidLimit is returned by [Repository.Fetch] for a non-positive limit.
	ErrInvalidLimit = errors.New("sms: limit must be positive")
	// ErrInvalidFilter is returned for an unknown [Filter].
	ErrInvalidFilter = errors.New("sms: invalid filter")
)

// Box identifies one backing message store.
type Box string

const (
	// BoxInbox holds received messages.
	BoxInbox Box = "inbox"
	// BoxSent holds sent messages.
	BoxSent Box = "sent"
)

// Filter selects which boxes [Repository.Fetch] reads.
type Filter string

const (
	// FilterBoth reads inbox and sent.
	FilterBoth Filter = "both"
	// FilterInbox reads only the inbox.
	FilterInbox Filter = "inbox"
	// FilterSent reads only sent messages.
	FilterSent Filter = "sent"
)

// ParseFilter converts a user-facing name into a [Filter].
func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case FilterBoth, "":
		return FilterBoth, nil
	case FilterInbox:
		return FilterInbox, nil
	case FilterSent:
		return FilterSent, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidFilter, value)
	}
}

// Boxes returns the boxes the filter reads, inbox first.
func (f Filter) Boxes() ([]Box, error) {
	switch f {
	case FilterBoth:
		return []Box{BoxInbox, BoxSent}, nil
	case FilterInbox:
		return []Box{BoxInbox}, nil
	case FilterSent:
		return []Box{BoxSent}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidFilter, string(f))
	}
}

// Column is a projection column name as used by the Android telephony provider.
type Column string

const (
	ColumnID            Column = "_id"
	ColumnAddress       Column = "address"
	ColumnServiceCenter Column = "service_center"
	ColumnDate          Column = "date"
	ColumnBody          Column = "body"
)

// Columns is the projection requested by [Repository.Fetch].
var Columns = []Column{ColumnID, ColumnAddress, ColumnServiceCenter, ColumnDate, ColumnBody}

// Query is one read request against a single box.
type Query struct {
	Box        Box
	Columns    []Column
	OrderBy    Column
	Descending bool
	Limit      int
}

// Row is one raw store row keyed by column. A missing key or nil value is NULL.
type Row map[Column]any

// Store is the read capability every message backend provides.
type Store interface {
	Query(ctx context.Context, q Query) ([]Row, error)
}

// AuthStatus describes read access to a backend.
type AuthStatus string

const (
	// AuthStatusAuthorized indicates the store can be read.
	AuthStatusAuthorized AuthStatus = "authorized"
	// AuthStatusDenied indicates the process lacks read permission.
	AuthStatusDenied AuthStatus = "denied"
	// AuthStatusUnavailable indicates the store does not exist or cannot be reached.
	AuthStatusUnavailable AuthStatus = "unavailable"
)

// Authorizer is implemented by stores that can report read access up front.
type Authorizer interface {
	Authorization(ctx context.Context) AuthStatus
}

// Record is one normalized message.
type Record struct {
	ID            int64
	Box           Box
	Address       string
	ServiceCenter string
	Timestamp     int64 // epoch milliseconds
	Body          string
}

// Time returns Timestamp as a time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Repository reads and merges records from a [Store].
type Repository struct {
	store Store
	log   *zerolog.Logger
}

// NewRepository wraps store. A nil logger disables logging.
func NewRepository(store Store, logger *zerolog.Logger) *Repository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Repository{store: store, log: logger}
}

// Fetch returns up to limit records from the boxes selected by filter, newest
// first. Ties keep inbox-before-sent and store order.
func (r *Repository) Fetch(ctx context.Context, filter Filter, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	boxes, err := filter.Boxes()
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, box := range boxes {
		records = append(records, r.fetchBox(ctx, box, limit)...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *Repository) fetchBox(ctx context.Context, box Box, limit int) []Record {
	rows, err := r.store.Query(ctx, Query{
		Box:        box,
		Columns:    Columns,
		OrderBy:    ColumnDate,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		r.log.Warn().Err(err).Str("box", string(box)).Msg("message store query failed")
		return nil
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalize(box, row))
	}
	r.log.Debug().Str("box", string(box)).Int("rows", len(records)).Msg("fetched message rows")
	return records
}

func normalize(box Box, row Row) Record {
	return Record{
		ID:            int64Value(row[ColumnID]),
		Box:           box,
		Address:       stringValue(row[ColumnAddress], UnknownAddress),
		ServiceCenter: stringValue(row[ColumnServiceCenter], NoServiceCenter),
		Timestamp:     int64Value(row[ColumnDate]),
		Body:          stringValue(row[ColumnBody], ""),
	}
}

func stringValue(value any, fallback string) string {
	switch typed := value.(type) {
	case nil:
		return fallback
	case string:
		return typed
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func int64Value(value any) int64 {
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case int32:
		return int64(typed)
	case float64:
		return int64(typed)
	case []byte:
		return parseInt64(string(typed))
	case string:
		return parseInt64(typed)
	default:
		return 0
	}
}

func parseInt64(raw string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
