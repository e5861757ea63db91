// Package sms sends collaborator invites over SMS via an external
// command-line gateway (termux-sms-send by default).
//
// The gateway is best-effort by design: on hosts without the command,
// sends are logged and skipped so inviting never blocks sharing.
package sms
