package retry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testErrRetryable struct {
}

func (e testErrRetryable) Error() string {
	return "retryable err"
}

func TestRetry(t *testing.T) {
	retryable, nonRetryable := testErrRetryable{}, fmt.Errorf("non-retryable")
	f := func(count *int, errs []error) error {
		cnt := *count
		// to prove the function logic is actually executed
		*count = cnt + 1
		return errs[cnt]
	}
	retryOn := func(e error) bool {
		_, ok := e.(testErrRetryable)
		return ok
	}
	tcs := []struct {
		name     string
		errs     []error
		strategy []RetryOption
		expected int
	}{
		{
			name:     "no retry",
			errs:     []error{nil},
			expected: 1,
		},
		{
			name: "retry with max attempt",
			errs: []error{
				retryable,
				retryable,
				retryable,
				nonRetryable,
			},
			expected: 3,
			strategy: []RetryOption{
				WithMaxAttempts(2),
				WithRetryOn(retryOn),
			},
		},
		{
			name: "retryOn",
			errs: []error{
				retryable,
				retryable,
				nonRetryable,
				retryable,
				retryable,
			},
			expected: 3,
			strategy: []RetryOption{
				WithMaxAttempts(10),
				WithRetryOn(retryOn),
			},
		},
		{
			name: "exponential backoff with jitter",
			errs: []error{
				retryable,
				retryable,
				nil,
			},
			expected: 3,
			strategy: []RetryOption{
				WithBaseDelay(time.Millisecond),
				WithExp(2.0),
				WithJitter(0.5),
				WithMaxBackoff(5 * time.Millisecond),
				WithRetryOn(retryOn),
			},
		},
	}

	for _, c := range tcs {
		errs, strategy, exp := c.errs, c.strategy, c.expected
		t.Run(c.name, func(t *testing.T) {
			actual := 0
			Retry(
				func() error {
					return f(&actual, errs)
				},
				strategy...,
			)
			assert.Equal(t, exp, actual, "unexpected attempt count for %v", errs)
		})
	}
}

func TestRetryTimeout(t *testing.T) {
	attempts := 0
	err := Retry(
		func() error {
			attempts++
			return testErrRetryable{}
		},
		WithBaseDelay(time.Hour),
		WithTimeout(10*time.Millisecond),
		WithRetryOn(func(error) bool { return true }),
	)
	assert.Equal(t, ErrRetryTimedOut, err)
	assert.Equal(t, 1, attempts)
}

func TestIsDepOffline(t *testing.T) {
	assert.True(t, IsDepOffline(fmt.Errorf("dial tcp 127.0.0.1:6379: connect: connection refused")))
	assert.False(t, IsDepOffline(fmt.Errorf("i/o timeout")))
	assert.False(t, IsDepOffline(nil))
}
