package sms

import (
	"context"
	"sort"
)

// MemoryStore is an in-memory [Store]. Rows are kept per box in insertion order.
type MemoryStore struct {
	Rows   map[Box][]Row
	Status AuthStatus
	// Err, when set, is returned by every Query.
	Err error
}

// NewMemoryStore returns an empty, authorized store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Rows: map[Box][]Row{}, Status: AuthStatusAuthorized}
}

// Add appends rows to box.
func (s *MemoryStore) Add(box Box, rows ...Row) {
	if s.Rows == nil {
		s.Rows = map[Box][]Row{}
	}
	s.Rows[box] = append(s.Rows[box], rows...)
}

// Query returns copies of the projected rows of q.Box sorted by q.OrderBy.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	source := s.Rows[q.Box]
	rows := make([]Row, 0, len(source))
	for _, row := range source {
		projected := make(Row, len(q.Columns))
		for _, column := range q.Columns {
			if value, ok := row[column]; ok {
				projected[column] = value
			}
		}
		rows = append(rows, projected)
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := int64Value(rows[i][q.OrderBy]), int64Value(rows[j][q.OrderBy])
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// Authorization reports Status, defaulting to authorized.
func (s *MemoryStore) Authorization(ctx context.Context) AuthStatus {
	_ = ctx
	if s.Status == "" {
		return AuthStatusAuthorized
	}
	return s.Status
}
