package mmssms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spachava753/smscview/sms"
)

// DefaultPath is where Android keeps the telephony provider database.
const DefaultPath = "/data/data/com.android.providers.telephony/databases/mmssms.db"

const (
	messageTypeInbox = 1
	messageTypeSent  = 2
)

var columnSQL = map[sms.Column]string{
	sms.ColumnID:            "_id",
	sms.ColumnAddress:       "address",
	sms.ColumnServiceCenter: "service_center",
	sms.ColumnDate:          "date",
	sms.ColumnBody:          "body",
}

// Store reads an mmssms.db file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("mmssms: database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("mmssms: database unavailable at %s: %w", path, err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", strings.ReplaceAll(path, " ", "%20"))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("mmssms: opening sqlite database failed: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("mmssms: connecting to sqlite database failed: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: path}, nil
}

// NewWithDB wraps an already opened database. The Store takes ownership of db.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Path returns the database file, or "" for stores built with NewWithDB.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Query reads q.Box. Unknown columns are rejected.
func (s *Store) Query(ctx context.Context, q sms.Query) ([]sms.Row, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mmssms: sqlite query failed: %w", err)
	}
	defer rows.Close()

	records := make([]sms.Row, 0, 64)
	for rows.Next() {
		values := make([]any, len(q.Columns))
		valuePointers := make([]any, len(q.Columns))
		for i := range values {
			valuePointers[i] = &values[i]
		}
		if err := rows.Scan(valuePointers...); err != nil {
			return nil, fmt.Errorf("mmssms: scanning sqlite row failed: %w", err)
		}

		row := make(sms.Row, len(q.Columns))
		for i, column := range q.Columns {
			row[column] = values[i]
		}
		records = append(records, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mmssms: iterating sqlite rows failed: %w", err)
	}
	return records, nil
}

// Authorization reports whether the database file can be read.
func (s *Store) Authorization(ctx context.Context) sms.AuthStatus {
	if s.path == "" {
		if err := s.db.PingContext(ctx); err != nil {
			return sms.AuthStatusUnavailable
		}
		return sms.AuthStatusAuthorized
	}
	return FileAuthorization(s.path)
}

// FileAuthorization maps the state of the database file at path to an
// sms.AuthStatus without opening it as a database.
func FileAuthorization(path string) sms.AuthStatus {
	file, err := os.Open(path)
	switch {
	case err == nil:
		file.Close()
		return sms.AuthStatusAuthorized
	case errors.Is(err, fs.ErrPermission):
		return sms.AuthStatusDenied
	default:
		return sms.AuthStatusUnavailable
	}
}

func buildQuery(q sms.Query) (string, []any, error) {
	if len(q.Columns) == 0 {
		return "", nil, errors.New("mmssms: projection is empty")
	}

	messageType, err := boxType(q.Box)
	if err != nil {
		return "", nil, err
	}

	projection := make([]string, 0, len(q.Columns))
	for _, column := range q.Columns {
		name, ok := columnSQL[column]
		if !ok {
			return "", nil, fmt.Errorf("mmssms: unknown column %q", column)
		}
		projection = append(projection, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM sms WHERE type = ?", strings.Join(projection, ", "))
	if q.OrderBy != "" {
		name, ok := columnSQL[q.OrderBy]
		if !ok {
			return "", nil, fmt.Errorf("mmssms: unknown order column %q", q.OrderBy)
		}
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", name, direction)
	}

	args := []any{messageType}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args, nil
}

func boxType(box sms.Box) (int, error) {
	switch box {
	case sms.BoxInbox:
		return messageTypeInbox, nil
	case sms.BoxSent:
		return messageTypeSent, nil
	default:
		return 0, fmt.Errorf("mmssms: unknown box %q", box)
	}
}
