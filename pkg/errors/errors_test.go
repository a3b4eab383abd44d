package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"full_name" validate:"max=3"`
}

func TestHTTPStatusCode(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"invalid request":     {NewInvalidRequestError("bad", nil), StatusBadRequest},
		"database":            {NewDatabaseError("db", nil), StatusInternalServerError},
		"unauthorized":        {NewUnauthorizedError("key", nil), StatusUnauthorized},
		"service unavailable": {NewServiceUnavailableError("down", nil), StatusServiceUnavailable},
		"wrapped":             {fmt.Errorf("outer: %w", NewNotFoundError("nf", nil)), StatusNotFound},
		"plain":               {fmt.Errorf("boom"), StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestGetHumanReadableMessage_DoesNotLeakInternals(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(fmt.Errorf("pq: relation does not exist")))
	assert.Equal(t, "friendly", GetHumanReadableMessage(NewDatabaseError("friendly", fmt.Errorf("pq: secret"))))
}

func TestGetDetails(t *testing.T) {
	err := NewInvalidRequestError("bad", nil).WithDetails([]string{"x"})
	assert.Equal(t, []string{"x"}, GetDetails(fmt.Errorf("wrap: %w", err)))
	assert.Nil(t, GetDetails(fmt.Errorf("plain")))
}

func TestFirstValidationError_UsesJSONNameAndFirstField(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{Email: "nope", Name: "toolong"})
	require.Error(t, err)

	first, ok := FirstValidationError(err, &sample{})
	require.True(t, ok)
	assert.Equal(t, "email", first.Field)
	assert.Equal(t, "Invalid email address", first.Message)

	all := FormatValidationErrors(err, &sample{})
	require.Len(t, all, 2)
	assert.Equal(t, "full_name", all[1].Field)
	assert.Equal(t, "Must not exceed 3 characters", all[1].Message)
}

func TestFormatValidationErrors_TypeError(t *testing.T) {
	var target sample
	err := json.Unmarshal([]byte(`{"email": 12}`), &target)
	require.Error(t, err)

	out := FormatValidationErrors(err, &target)
	require.Len(t, out, 1)
	assert.Equal(t, "email", out[0].Field)
}
