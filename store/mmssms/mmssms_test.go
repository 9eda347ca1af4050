package mmssms

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nalgeon/be"

	"github.com/spachava753/smscview/sms"
)

const schema = `
CREATE TABLE sms (
	_id            INTEGER PRIMARY KEY,
	thread_id      INTEGER,
	address        TEXT,
	date           INTEGER,
	date_sent      INTEGER DEFAULT 0,
	read           INTEGER DEFAULT 0,
	type           INTEGER,
	body           TEXT,
	service_center TEXT
);`

type seedRow struct {
	id            int64
	address       any
	date          int64
	messageType   int
	body          any
	serviceCenter any
}

func createDatabase(t *testing.T, rows []seedRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mmssms.db")

	db, err := sql.Open("sqlite3", path)
	be.Err(t, err, nil)
	defer db.Close()

	_, err = db.Exec(schema)
	be.Err(t, err, nil)
	for _, row := range rows {
		_, err = db.Exec(
			`INSERT INTO sms (_id, thread_id, address, date, type, body, service_center) VALUES (?, 1, ?, ?, ?, ?, ?)`,
			row.id, row.address, row.date, row.messageType, row.body, row.serviceCenter,
		)
		be.Err(t, err, nil)
	}
	return path
}

func TestFetchFromDatabase(t *testing.T) {
	path := createDatabase(t, []seedRow{
		{id: 1, address: "+15550001", date: 1000, messageType: messageTypeInbox, body: "one", serviceCenter: "+15550100"},
		{id: 2, address: nil, date: 4000, messageType: messageTypeInbox, body: nil, serviceCenter: nil},
		{id: 3, address: "+15550003", date: 2000, messageType: messageTypeSent, body: "three", serviceCenter: nil},
		{id: 4, address: "+15550004", date: 3000, messageType: 3, body: "draft", serviceCenter: nil},
	})

	store, err := Open(path)
	be.Err(t, err, nil)
	defer store.Close()
	be.Equal(t, store.Path(), path)

	repo := sms.NewRepository(store, nil)
	records, err := repo.Fetch(context.Background(), sms.FilterBoth, sms.DefaultLimit)
	be.Err(t, err, nil)
	be.Equal(t, records, []sms.Record{
		{ID: 2, Box: sms.BoxInbox, Address: sms.UnknownAddress, ServiceCenter: sms.NoServiceCenter, Timestamp: 4000, Body: ""},
		{ID: 3, Box: sms.BoxSent, Address: "+15550003", ServiceCenter: sms.NoServiceCenter, Timestamp: 2000, Body: "three"},
		{ID: 1, Box: sms.BoxInbox, Address: "+15550001", ServiceCenter: "+15550100", Timestamp: 1000, Body: "one"},
	})

	sent, err := repo.Fetch(context.Background(), sms.FilterSent, 10)
	be.Err(t, err, nil)
	be.Equal(t, len(sent), 1)
	be.Equal(t, sent[0].ID, int64(3))
}

func TestQueryAppliesLimit(t *testing.T) {
	path := createDatabase(t, []seedRow{
		{id: 1, address: "a", date: 1, messageType: messageTypeInbox},
		{id: 2, address: "b", date: 3, messageType: messageTypeInbox},
		{id: 3, address: "c", date: 2, messageType: messageTypeInbox},
	})
	store, err := Open(path)
	be.Err(t, err, nil)
	defer store.Close()

	rows, err := store.Query(context.Background(), sms.Query{
		Box:        sms.BoxInbox,
		Columns:    []sms.Column{sms.ColumnID},
		OrderBy:    sms.ColumnDate,
		Descending: true,
		Limit:      2,
	})
	be.Err(t, err, nil)
	be.Equal(t, len(rows), 2)
	be.Equal(t, rows[0][sms.ColumnID], any(int64(2)))
	be.Equal(t, rows[1][sms.ColumnID], any(int64(3)))
}

func TestOpenIsReadOnly(t *testing.T) {
	path := createDatabase(t, nil)
	store, err := Open(path)
	be.Err(t, err, nil)
	defer store.Close()

	_, err = store.db.Exec(`INSERT INTO sms (_id, type) VALUES (9, 1)`)
	be.True(t, err != nil)
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	be.Err(t, err, os.ErrNotExist)

	_, err = Open("  ")
	be.Err(t, err, "path is required")
}

func TestBuildQuery(t *testing.T) {
	query, args, err := buildQuery(sms.Query{
		Box:        sms.BoxSent,
		Columns:    sms.Columns,
		OrderBy:    sms.ColumnDate,
		Descending: true,
		Limit:      100,
	})
	be.Err(t, err, nil)
	be.Equal(t, query, "SELECT _id, address, service_center, date, body FROM sms WHERE type = ? ORDER BY date DESC LIMIT ?")
	be.Equal(t, args, []any{messageTypeSent, 100})

	_, _, err = buildQuery(sms.Query{Box: sms.BoxInbox, Columns: []sms.Column{"person; DROP TABLE sms"}})
	be.Err(t, err, "unknown column")

	_, _, err = buildQuery(sms.Query{Box: "outbox", Columns: sms.Columns})
	be.Err(t, err, "unknown box")

	_, _, err = buildQuery(sms.Query{Box: sms.BoxInbox})
	be.Err(t, err, "projection is empty")
}

func TestQueryErrorWithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	be.Err(t, err, nil)
	store := NewWithDB(db)
	defer store.Close()

	mock.ExpectQuery("SELECT _id, address, service_center, date, body FROM sms").
		WithArgs(messageTypeInbox, 5).
		WillReturnError(errors.New("attempt to read a locked database"))
	mock.ExpectQuery("SELECT _id, address, service_center, date, body FROM sms").
		WithArgs(messageTypeSent, 5).
		WillReturnRows(sqlmock.NewRows([]string{"_id", "address", "service_center", "date", "body"}).
			AddRow(int64(8), []byte("+15550008"), nil, int64(77), []byte("sent text")))

	records, err := sms.NewRepository(store, nil).Fetch(context.Background(), sms.FilterBoth, 5)
	be.Err(t, err, nil)
	be.Equal(t, records, []sms.Record{
		{ID: 8, Box: sms.BoxSent, Address: "+15550008", ServiceCenter: sms.NoServiceCenter, Timestamp: 77, Body: "sent text"},
	})
	be.Err(t, mock.ExpectationsWereMet(), nil)
}

func TestFileAuthorization(t *testing.T) {
	path := createDatabase(t, nil)
	be.Equal(t, FileAuthorization(path), sms.AuthStatusAuthorized)
	be.Equal(t, FileAuthorization(filepath.Join(t.TempDir(), "nope.db")), sms.AuthStatusUnavailable)

	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	be.Err(t, os.Chmod(path, 0o000), nil)
	defer os.Chmod(path, 0o644)
	be.Equal(t, FileAuthorization(path), sms.AuthStatusDenied)
}
