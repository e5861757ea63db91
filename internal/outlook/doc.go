// Package outlook provides the Microsoft-Graph-backed remote provider:
// the signed-in user's profile and window-bounded event retrieval over the
// Graph v1.0 REST surface with bearer-token auth.
//
// Graph failures are mapped onto the shared provider error taxonomy.
package outlook
