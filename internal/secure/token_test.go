package secure

import (
	"testing"
)

func TestTokenBufferRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{name: "typical token", token: "bs-1234567890abcdef"},
		{name: "empty token", token: ""},
		{name: "token with unusual bytes", token: "tok\x00en\xffvalue"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := NewTokenBuffer(tt.token)
			defer buf.Destroy()

			got, err := buf.Reveal()
			if err != nil {
				t.Fatalf("Reveal() error = %v", err)
			}
			if got != tt.token {
				t.Errorf("Reveal() = %q, want %q", got, tt.token)
			}

			// Reveal must be repeatable
			again, err := buf.Reveal()
			if err != nil {
				t.Fatalf("second Reveal() error = %v", err)
			}
			if again != tt.token {
				t.Errorf("second Reveal() = %q, want %q", again, tt.token)
			}
		})
	}
}

func TestTokenBufferDestroy(t *testing.T) {
	t.Parallel()

	buf := NewTokenBuffer("destroy-me")
	buf.Destroy()

	if _, err := buf.Reveal(); err != ErrDestroyed {
		t.Errorf("Reveal() after Destroy() error = %v, want ErrDestroyed", err)
	}

	// Destroy is idempotent
	buf.Destroy()
}
