// Package cmd implements the command-line interface for calhub.
//
// This package provides the following commands:
//   - sync: Merge all signed-in calendars into one agenda (optionally watching on a schedule)
//   - auth: Sign in to, sign out of, and inspect provider sessions
//   - share: Grant a collaborator access to the Google calendar
//   - add: Create an event in the device's app calendar
//   - invite: Send an SMS invite to a collaborator
//   - version: Display version information
//
// The sync command is the default command when no subcommand is specified.
package cmd
