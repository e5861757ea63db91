// Package auth manages per-provider sign-in sessions.
//
// A Manager holds at most one Session per provider and serializes
// interactive sign-ins, so a second attempt while one is in flight is
// rejected with ErrInProgress rather than queued. Provider specifics live
// in Flow implementations: GoogleFlow (consent URL plus cached silent
// refresh), OutlookFlow (PKCE code exchange against Azure AD), and
// AppleFlow (identity only, via a host-supplied bridge).
//
// Failed or cancelled sign-ins never disturb the session that was in
// place before the attempt.
package auth
