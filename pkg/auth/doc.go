// Package auth implements the OAuth 2.0 Device Authorization Grant client
// (RFC 8628) and the local credential lifecycle: requesting a device code,
// polling the token endpoint until the user approves or the code expires,
// and persisting the resulting token on disk or in the system keychain.
package auth
