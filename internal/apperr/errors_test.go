package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("booking: %w", Conflict("This time slot is already booked"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("Doctor")))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Appointment"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestMessageHidesInternal(t *testing.T) {
	assert.Equal(t, "Doctor not found", Message(NotFound("Doctor")))
	assert.Equal(t, "internal server error", Message(Internal(errors.New("socket closed"))))
	assert.Equal(t, "internal server error", Message(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidArgument: http.StatusBadRequest,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}
