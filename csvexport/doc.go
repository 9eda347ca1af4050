// Package csvexport writes SMS records to a CSV file.
//
// File format
//
//	type,id,address,smsc,date,body
//	sms,<id>,"<address>","<smsc>",<yyyy-MM-dd HH:mm:ss>,"<body>"
//
// address, smsc and body are always double-quoted with interior quotes
// doubled. Lines end with "\n". Rows are written in input order.
//
// Operational notes
//
//   - Filenames are a single path component; anything else is rejected with
//     StatusInvalidPath before the disk is touched.
//   - Files are written to a temp file and renamed into place, so a failed
//     export never leaves a truncated file behind.
//   - Concurrent exports to the same name are last-writer-wins.
package csvexport
