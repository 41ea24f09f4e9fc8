package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when revealing a destroyed token buffer.
var ErrDestroyed = errors.New("token buffer destroyed")

// TokenBuffer stores one CI token in an encrypted memguard enclave. The
// plaintext only exists between a Reveal call and the moment the returned
// string goes out of use.
type TokenBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	empty     bool
	destroyed bool
}

// NewTokenBuffer copies token into a protected memory region. The caller
// should drop its own copy as soon as possible.
func NewTokenBuffer(token string) *TokenBuffer {
	// memguard cannot hold zero-length buffers
	if token == "" {
		return &TokenBuffer{empty: true}
	}
	return &TokenBuffer{
		enclave: memguard.NewEnclave([]byte(token)),
	}
}

// Reveal decrypts the enclave and returns the token as a string. The locked
// intermediate buffer is wiped before returning.
func (b *TokenBuffer) Reveal() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return "", ErrDestroyed
	}
	if b.empty {
		return "", nil
	}
	if b.enclave == nil {
		return "", ErrDestroyed
	}

	locked, err := b.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()

	return string(locked.Bytes()), nil
}

// Destroy marks the buffer unusable. Idempotent; the encrypted enclave data
// is left for memguard.Purge at exit.
func (b *TokenBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
