package sms

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestSearch(t *testing.T) {
	records := []Record{
		{ID: 1, Address: "+15551234", Body: "Your code is 9981"},
		{ID: 2, Address: "BANK", Body: "Balance low"},
		{ID: 3, Address: "+15559999", Body: "see you at the bank"},
		{ID: 4, Address: "Ärger GmbH", Body: "hello"},
	}

	be.Equal(t, Search(records, ""), records)

	matched := Search(records, "bank")
	be.Equal(t, len(matched), 2)
	be.Equal(t, matched[0].ID, int64(2))
	be.Equal(t, matched[1].ID, int64(3))

	matched = Search(records, "CODE")
	be.Equal(t, len(matched), 1)
	be.Equal(t, matched[0].ID, int64(1))

	matched = Search(records, "+1555")
	be.Equal(t, len(matched), 2)

	matched = Search(records, "ärger")
	be.Equal(t, len(matched), 1)
	be.Equal(t, matched[0].ID, int64(4))

	be.Equal(t, len(Search(records, "nomatch")), 0)
}
