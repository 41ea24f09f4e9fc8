package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  UserError
		want []string
	}{
		{
			name: "message only",
			err:  UserError{Message: "Something failed"},
			want: []string{"Something failed"},
		},
		{
			name: "message with suggestion",
			err: UserError{
				Message:    "No token",
				Suggestion: "Set BINSTAR_TOKEN in the environment",
			},
			want: []string{"No token", "Try: Set BINSTAR_TOKEN"},
		},
		{
			name: "falls back to wrapped error",
			err:  UserError{Err: fmt.Errorf("connection refused")},
			want: []string{"connection refused"},
		},
		{
			name: "details included",
			err: UserError{
				Message: "Rotation failed",
				Details: "provider returned status 500",
			},
			want: []string{"Rotation failed", "Details: provider returned status 500"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := tt.err.Error()
			for _, want := range tt.want {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := fmt.Errorf("boom")
	err := UserError{Message: "outer", Err: inner}
	assert.True(t, stderrors.Is(err, inner))
}

func TestCredentialError(t *testing.T) {
	t.Parallel()

	err := CredentialError{
		Name:    "anaconda",
		Sources: []string{"$BINSTAR_TOKEN", "~/.conda-smithy/anaconda.token"},
	}
	msg := err.Error()
	assert.Contains(t, msg, "anaconda")
	assert.Contains(t, msg, "$BINSTAR_TOKEN")
	assert.Contains(t, msg, "~/.conda-smithy/anaconda.token")
}
