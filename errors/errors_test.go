package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsTrace(t *testing.T) {
	tcs := []struct {
		name     string
		err      *Err
		expected string
	}{
		{
			name:     "ErrWithoutCause",
			err:      NewNotImplemented(),
			expected: "Not implemented",
		},
		{
			name: "ErrWithCauses",
			err: &Err{
				msg: "foo",
				cause: &Err{
					msg:   "bar",
					cause: &Err{msg: "qux"},
				},
			},
			expected: "foo\n\tCaused by: bar\n\t\tCaused by: qux",
		},
		{
			name:     "ErrWithForeignCause",
			err:      NewServiceFailure("foo").WithCause(fmt.Errorf("bar")),
			expected: "foo\n\tCaused by: bar",
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			actual := c.err.Trace()
			assert.Equal(t, c.expected, actual, "unexpected error trace")
		})
	}
}

func TestErrorsStatusCode(t *testing.T) {
	tcs := []struct {
		err          *Err
		expectedCode int
	}{
		{
			err:          NewServiceFailure("fake"),
			expectedCode: http.StatusInternalServerError,
		},
		{
			err:          NewNotFound("fake"),
			expectedCode: http.StatusNotFound,
		},
		{
			err:          NewBadInput("fake"),
			expectedCode: http.StatusBadRequest,
		},
		{
			err:          NewSpam(),
			expectedCode: http.StatusForbidden,
		},
		{
			err:          NewBusy("fake"),
			expectedCode: http.StatusConflict,
		},
		{
			err:          NewOversized(),
			expectedCode: http.StatusRequestEntityTooLarge,
		},
		{
			err:          NewDependencyFailure("fake"),
			expectedCode: http.StatusBadGateway,
		},
	}
	for _, c := range tcs {
		code := c.err.StatusCode()
		assert.Equal(t, c.expectedCode, code, "unexpected status code")
	}
}

func TestErrorsAs(t *testing.T) {
	inner := NewNotFound("capsule not found")
	wrapped := fmt.Errorf("lookup: %w", inner)

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, e.Code)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestErrorsWithMsg(t *testing.T) {
	e := NewOversized().WithMsg("title oversized")
	assert.Equal(t, "title oversized", e.Error())
	assert.Equal(t, ErrCodeOversized, e.Code)
}
