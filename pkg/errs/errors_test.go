package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeError_Error(t *testing.T) {
	err := New(ErrNavigate, "login.open", errors.New("connection refused"))
	assert.Equal(t, "[ERR-NAV-001] login.open: connection refused", err.Error())

	err.WithResource("http://localhost:5173/login")
	assert.Equal(t, "[ERR-NAV-001] login.open (http://localhost:5173/login): connection refused", err.Error())
}

func TestSmokeError_UserMessage(t *testing.T) {
	err := Newf(ErrPreflight, "preflight", "status %d", 502).
		WithResource("http://localhost:5173").
		WithAdvice("start the frontend with `npm run dev`")

	msg := err.UserMessage()
	assert.Contains(t, msg, "ERR-PREFLIGHT-001: preflight (http://localhost:5173): status 502")
	assert.Contains(t, msg, "→ start the frontend")
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal, "op"))
}

func TestWrap_KeepsExistingCode(t *testing.T) {
	inner := New(ErrWaitTimeout, "wait", context.DeadlineExceeded).WithResource("id=email")
	outer := Wrap(fmt.Errorf("fill form: %w", inner), ErrInteract, "login")

	assert.Equal(t, ErrWaitTimeout, outer.Code)
	assert.Equal(t, "login.wait", outer.Op)
	assert.Equal(t, "id=email", outer.Resource)
	assert.True(t, errors.Is(outer, context.DeadlineExceeded))
}

func TestWrap_PlainError(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrInternal, "run")
	require.NotNil(t, err)
	assert.Equal(t, ErrInternal, err.Code)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsCodeAndCodeOf(t *testing.T) {
	err := fmt.Errorf("scenario: %w", New(ErrAssertion, "enroll", errors.New("no button")))

	assert.True(t, IsCode(err, ErrAssertion))
	assert.False(t, IsCode(err, ErrNavigate))
	assert.Equal(t, ErrAssertion, CodeOf(err))
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("plain")))
	assert.Nil(t, AsSmoke(errors.New("plain")))
}
