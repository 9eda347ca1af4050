// Package sms retrieves SMS records from inbox/sent message stores together
// with the service-center address (SMSC) that relayed each message.
//
// Data sources
//
// The package does not talk to a concrete database. Backends implement [Store]:
//
//   - github.com/spachava753/smscview/store/mmssms
//     Android telephony database (mmssms.db) over SQLite.
//   - github.com/spachava753/smscview/store/imapbackup
//     SMS Backup+ style IMAP mailboxes.
//   - [MemoryStore]
//     In-memory rows for tests and scripted use.
//
// Exported API (recommended usage order)
//
//  1. NewRepository(store, logger)
//     Wrap a backend.
//  2. Repository.Fetch(ctx, filter, limit)
//     Newest-first records for FilterBoth, FilterInbox or FilterSent, capped at
//     limit. A box whose query fails contributes no records.
//  3. Search(records, query)
//     Case-insensitive substring match on Address or Body.
//
// Operational notes
//
//   - Fetch never fails because a backend failed. Callers that need to tell
//     "no permission" apart from "no messages" check [Authorizer] first.
//   - Missing columns become placeholders: Address "(unknown)",
//     ServiceCenter "(none)", Body "".
//   - The limit is applied to each box before merging and again after the
//     merged list is sorted.
package sms
