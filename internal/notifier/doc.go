// Package notifier delivers failure notifications for catchlottery runs.
//
// A Notifier receives a Message (subject, plain text and HTML body) and delivers it
// through one channel: SMTP mail, a Telegram chat, a Twitter direct message, or standard
// output in dry-run mode. Multi fans a message out to several channels.
package notifier
