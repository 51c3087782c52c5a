package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"domain not found", NotFound("debtor"), KindNotFound},
		{"wrapped domain conflict", fmt.Errorf("create: %w", Conflict("exists", nil)), KindConflict},
		{"validation", Validation("name", "name is required"), KindValidation},
		{"sentinel not found", fmt.Errorf("%w: charge not found", ErrNotFound), KindNotFound},
		{"sentinel invalid input", fmt.Errorf("%w: bad id", ErrInvalidInput), KindValidation},
		{"sentinel forbidden", ErrForbidden, KindForbidden},
		{"plain error", errors.New("boom"), KindInternal},
		{"internal hides inner kind", Internal(Conflict("exists", nil)), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("get: %w", NotFound("receipt"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.NotErrorIs(t, err, ErrConflict)

	cause := errors.New("pq: connection refused")
	internal := Internal(cause)
	assert.True(t, errors.Is(internal, ErrInternal))
	assert.True(t, errors.Is(internal, cause))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "debtor not found", MessageOf(NotFound("debtor")))
	assert.Equal(t, `value "123" already exists`, MessageOf(Conflict(`value "123" already exists`, errors.New("pq: duplicate"))))
	assert.Equal(t, "charge not found", MessageOf(fmt.Errorf("%w: charge not found", ErrNotFound)))
	assert.Equal(t, "internal error", MessageOf(errors.New("pq: relation \"debtors\" does not exist")))
	assert.Equal(t, "internal error", MessageOf(Internal(errors.New("deadlock"))))
}

func TestDomainError_With(t *testing.T) {
	err := Validation("amount", "amount must be positive").With("min", 0)
	assert.Equal(t, "amount", err.Fields["field"])
	assert.Equal(t, 0, err.Fields["min"])
	assert.Equal(t, "validation: amount must be positive", err.Error())
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseID(bad)
		assert.True(t, IsValidation(err), bad)
	}
}
