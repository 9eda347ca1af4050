// Package mmssms reads SMS from an Android telephony provider database
// (mmssms.db) and implements sms.Store.
//
// The database is opened read-only through github.com/mattn/go-sqlite3 (CGO
// required). Rows come from the sms table; type 1 is the inbox and type 2 is
// sent. On a device the file lives at [DefaultPath] and is readable only by
// the telephony provider, so most callers copy it off a backup or a rooted
// device first.
package mmssms
