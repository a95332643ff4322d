// Package github is a thin client for the repository Contents API used by
// reposync. It reads file metadata and content, creates or updates files,
// and identifies the owner of a token.
//
// The package includes:
// - Client wrapping go-github with per-call contexts
// - Error types carrying the HTTP status of failed exchanges
// - A rate limiter that paces calls from the rate limit headers
// - AuthManager for token validation
package github
