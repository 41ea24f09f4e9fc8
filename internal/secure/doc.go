// Package secure holds resolved CI tokens in protected memory.
//
// Tokens sit in this process for the whole rotation call, and the point of
// the tool is not leaking them. The package wraps memguard so that resolved
// token bytes are:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Protected from swapping via mlock where available
//   - Wiped on destruction
//
// Call memguard.Purge() at process exit for full cleanup.
//
// It does NOT protect against attackers with root access to the running
// process or hardware-level attacks.
package secure
