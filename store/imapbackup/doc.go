// Package imapbackup reads SMS that backup apps such as SMS Backup+ store as
// mail in an IMAP folder, and implements sms.Store over them.
//
// Each backed-up SMS is one mail message. The SMS columns travel as headers:
//
//	X-smssync-id              provider row id
//	X-smssync-type            1 inbox, 2 sent
//	X-smssync-address         sender/recipient
//	X-smssync-date            epoch milliseconds
//	X-smssync-service_center  SMSC address
//
// The SMS text is the message body. Messages are found with UID SEARCH on the
// type header and fetched with BODY.PEEK[], so reading never marks anything as
// seen. The folder is selected read-only.
//
// Credentials are passed in [Config]; authentication uses SASL PLAIN from
// github.com/emersion/go-sasl.
package imapbackup
