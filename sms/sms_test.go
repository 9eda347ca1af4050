package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func seededStore() *MemoryStore {
	store := NewMemoryStore()
	store.Add(BoxInbox,
		Row{ColumnID: int64(1), ColumnAddress: "555", ColumnServiceCenter: "+4479", ColumnDate: int64(1000), ColumnBody: "first"},
		Row{ColumnID: int64(2), ColumnAddress: "556", ColumnServiceCenter: "+4479", ColumnDate: int64(3000), ColumnBody: "third"},
		Row{ColumnID: int64(3), ColumnAddress: "557", ColumnDate: int64(5000), ColumnBody: "fifth"},
	)
	store.Add(BoxSent,
		Row{ColumnID: int64(1), ColumnAddress: "555", ColumnDate: int64(2000), ColumnBody: "second"},
		Row{ColumnID: int64(2), ColumnAddress: "556", ColumnDate: int64(4000), ColumnBody: "fourth"},
	)
	return store
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, string(r.Box)+":"+r.Body)
	}
	return out
}

func TestFetchBothMergesNewestFirst(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	records, err := repo.Fetch(context.Background(), FilterBoth, DefaultLimit)
	be.Err(t, err, nil)
	be.Equal(t, ids(records), []string{"inbox:fifth", "sent:fourth", "inbox:third", "sent:second", "inbox:first"})
}

func TestFetchBothTruncatesAfterMerge(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	records, err := repo.Fetch(context.Background(), FilterBoth, 2)
	be.Err(t, err, nil)
	be.Equal(t, ids(records), []string{"inbox:fifth", "sent:fourth"})
}

func TestFetchSingleBox(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	inbox, err := repo.Fetch(context.Background(), FilterInbox, DefaultLimit)
	be.Err(t, err, nil)
	be.Equal(t, len(inbox), 3)
	for _, r := range inbox {
		be.Equal(t, r.Box, BoxInbox)
	}

	sent, err := repo.Fetch(context.Background(), FilterSent, DefaultLimit)
	be.Err(t, err, nil)
	be.Equal(t, ids(sent), []string{"sent:fourth", "sent:second"})
}

func TestFetchInboxOnlyWhenSentEmpty(t *testing.T) {
	store := NewMemoryStore()
	store.Add(BoxInbox,
		Row{ColumnID: int64(1), ColumnDate: int64(10)},
		Row{ColumnID: int64(2), ColumnDate: int64(30)},
		Row{ColumnID: int64(3), ColumnDate: int64(20)},
	)
	repo := NewRepository(store, nil)

	records, err := repo.Fetch(context.Background(), FilterBoth, 100)
	be.Err(t, err, nil)
	be.Equal(t, len(records), 3)
	be.Equal(t, records[0].ID, int64(2))
	be.Equal(t, records[1].ID, int64(3))
	be.Equal(t, records[2].ID, int64(1))
}

func TestFetchRejectsNonPositiveLimit(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	_, err := repo.Fetch(context.Background(), FilterBoth, 0)
	be.Err(t, err, ErrInvalidLimit)
	_, err = repo.Fetch(context.Background(), FilterBoth, -5)
	be.Err(t, err, ErrInvalidLimit)
}

func TestFetchRejectsUnknownFilter(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	_, err := repo.Fetch(context.Background(), Filter("drafts"), 10)
	be.Err(t, err, ErrInvalidFilter)
}

func TestFetchIsIdempotent(t *testing.T) {
	repo := NewRepository(seededStore(), nil)

	first, err := repo.Fetch(context.Background(), FilterBoth, 4)
	be.Err(t, err, nil)
	second, err := repo.Fetch(context.Background(), FilterBoth, 4)
	be.Err(t, err, nil)
	be.Equal(t, first, second)
}

func TestFetchSubstitutesPlaceholders(t *testing.T) {
	store := NewMemoryStore()
	store.Add(BoxInbox, Row{ColumnID: int64(7), ColumnDate: int64(42), ColumnAddress: nil})
	repo := NewRepository(store, nil)

	records, err := repo.Fetch(context.Background(), FilterInbox, 10)
	be.Err(t, err, nil)
	be.Equal(t, records, []Record{{
		ID:            7,
		Box:           BoxInbox,
		Address:       UnknownAddress,
		ServiceCenter: NoServiceCenter,
		Timestamp:     42,
		Body:          "",
	}})
}

func TestFetchAcceptsTextEncodedNumbers(t *testing.T) {
	store := NewMemoryStore()
	store.Add(BoxSent, Row{ColumnID: []byte("12"), ColumnDate: "1700000000000", ColumnAddress: []byte("+1555")})
	repo := NewRepository(store, nil)

	records, err := repo.Fetch(context.Background(), FilterSent, 1)
	be.Err(t, err, nil)
	be.Equal(t, records[0].ID, int64(12))
	be.Equal(t, records[0].Timestamp, int64(1700000000000))
	be.Equal(t, records[0].Address, "+1555")
}

type boxFailingStore struct {
	*MemoryStore
	failing Box
}

func (s boxFailingStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if q.Box == s.failing {
		return nil, errors.New("permission denied")
	}
	return s.MemoryStore.Query(ctx, q)
}

func TestFetchTreatsStoreErrorAsEmpty(t *testing.T) {
	repo := NewRepository(boxFailingStore{MemoryStore: seededStore(), failing: BoxInbox}, nil)

	records, err := repo.Fetch(context.Background(), FilterBoth, 10)
	be.Err(t, err, nil)
	be.Equal(t, ids(records), []string{"sent:fourth", "sent:second"})

	store := seededStore()
	store.Err = errors.New("store offline")
	records, err = NewRepository(store, nil).Fetch(context.Background(), FilterBoth, 10)
	be.Err(t, err, nil)
	be.Equal(t, len(records), 0)
}

type unlimitedStore struct {
	rows map[Box][]Row
}

func (s unlimitedStore) Query(ctx context.Context, q Query) ([]Row, error) {
	_ = ctx
	return s.rows[q.Box], nil
}

func TestFetchCapsEachBoxBeforeMerge(t *testing.T) {
	store := unlimitedStore{rows: map[Box][]Row{
		BoxInbox: {
			{ColumnID: int64(1), ColumnDate: int64(10)},
			{ColumnID: int64(2), ColumnDate: int64(900)},
		},
		BoxSent: {
			{ColumnID: int64(3), ColumnDate: int64(50)},
		},
	}}
	repo := NewRepository(store, nil)

	// Only the first inbox row survives the per-box cap, so the row at 900 never competes.
	records, err := repo.Fetch(context.Background(), FilterBoth, 1)
	be.Err(t, err, nil)
	be.Equal(t, len(records), 1)
	be.Equal(t, records[0].ID, int64(3))
}

func TestFetchKeepsInboxFirstOnTies(t *testing.T) {
	store := NewMemoryStore()
	store.Add(BoxSent, Row{ColumnID: int64(1), ColumnDate: int64(100), ColumnBody: "sent"})
	store.Add(BoxInbox, Row{ColumnID: int64(1), ColumnDate: int64(100), ColumnBody: "inbox"})
	repo := NewRepository(store, nil)

	records, err := repo.Fetch(context.Background(), FilterBoth, 10)
	be.Err(t, err, nil)
	be.Equal(t, ids(records), []string{"inbox:inbox", "sent:sent"})
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(" Inbox ")
	be.Err(t, err, nil)
	be.Equal(t, f, FilterInbox)

	f, err = ParseFilter("")
	be.Err(t, err, nil)
	be.Equal(t, f, FilterBoth)

	_, err = ParseFilter("outbox")
	be.Err(t, err, ErrInvalidFilter)
}

func TestRecordTime(t *testing.T) {
	r := Record{Timestamp: 1700000000123}
	be.Equal(t, r.Time().UnixMilli(), int64(1700000000123))
}
