package gameerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{ErrRoomNotFound, ErrNotFound},
		{ErrAlreadySubmitted, ErrConflict},
		{ErrInvalidChoice, ErrInvalidInput},
		{ErrStrategyNotFound, ErrConfiguration},
		{fmt.Errorf("scoring question 3: %w", ErrStrategyNotFound), ErrConfiguration},
		{Transient(errors.New("connection reset")), ErrTransientPersistence},
		{errors.New("plain"), nil},
		{nil, nil},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Kind(c.err), "Kind(%v)", c.err)
	}
}

func TestSpecificErrorsMatchThemselves(t *testing.T) {
	err := fmt.Errorf("submit: %w", ErrRoomFull)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrRoomNotWaiting)
}

func TestTransient_Nil(t *testing.T) {
	assert.NoError(t, Transient(nil))
}
