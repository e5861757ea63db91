// Package google provides the Google Calendar remote provider: calendar
// list and event retrieval for the sync cycle, the signed-in user's
// profile, and ACL-based calendar sharing.
//
// The client is constructed from a bearer access token supplied by the
// auth session manager; it performs no token refresh of its own. API
// failures are mapped onto the shared provider error taxonomy.
package google
