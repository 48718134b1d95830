package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad input", nil), http.StatusBadRequest},
		{NotFound("missing", nil), http.StatusNotFound},
		{Conflict("duplicate", nil), http.StatusConflict},
		{Auth("invalid credentials"), http.StatusUnauthorized},
		{Unavailable("down", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessage_MasksUnkindedErrors(t *testing.T) {
	if got := Message(Validation("email is invalid", nil)); got != "email is invalid" {
		t.Errorf("kinded message %q", got)
	}
	if got := Message(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("unkinded errors must be masked, got %q", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("save patient: %w", Conflict("email already registered", nil))
	if !IsKind(err, KindConflict) {
		t.Error("kind should survive fmt.Errorf wrapping")
	}
	if HTTPStatus(err) != http.StatusConflict {
		t.Error("status should follow the wrapped kind")
	}
	if Message(err) != "email already registered" {
		t.Errorf("message %q", Message(err))
	}
}

func TestErrorString(t *testing.T) {
	bare := NotFound("no such doctor", nil)
	if bare.Error() != "no such doctor" {
		t.Errorf("bare error string %q", bare.Error())
	}

	cause := errors.New("no rows")
	wrapped := NotFound("no such doctor", cause)
	if wrapped.Error() != "no such doctor: no rows" {
		t.Errorf("wrapped error string %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should unwrap")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindUnavailable, "classifier returned status %d", 502)
	if !IsKind(err, KindUnavailable) {
		t.Error("wrong kind")
	}
	if err.Message != "classifier returned status 502" {
		t.Errorf("message %q", err.Message)
	}
}
