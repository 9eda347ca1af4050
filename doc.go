// Package smscview is a lightweight index for the packages in this module.
//
// This root package is documentation-only. Import specific subpackages to use
// concrete helpers.
//
// Available subpackages:
//   - github.com/spachava753/smscview/sms
//     Message repository: fetch inbox/sent records with their SMSC, search.
//   - github.com/spachava753/smscview/csvexport
//     CSV export of fetched records.
//   - github.com/spachava753/smscview/store/mmssms
//     Android telephony database (mmssms.db) backend.
//   - github.com/spachava753/smscview/store/imapbackup
//     SMS Backup+ IMAP folder backend.
//   - github.com/spachava753/smscview/mailshare
//     Mail an exported CSV over SMTP.
//
// The smscview command (cmd/smscview) wires these together:
//
//	smscview list --db mmssms.db --filter inbox --limit 20
//	smscview export --search bank bank.csv
//
// Discovery workflow:
//   - Run: go doc github.com/spachava753/smscview
//   - Then drill in with:
//     go doc github.com/spachava753/smscview/sms
//     go doc github.com/spachava753/smscview/csvexport
package smscview
