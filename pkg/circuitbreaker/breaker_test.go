package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(clock *fakeClock, isFailure func(error) bool) *CircuitBreaker {
	return New("llm", Config{
		FailureThreshold: 2,
		OpenTimeout:      10 * time.Second,
		IsFailure:        isFailure,
		now:              clock.now,
	})
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := newTestBreaker(clock, nil)
	boom := errors.New("provider down")

	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := newTestBreaker(clock, nil)
	boom := errors.New("provider down")
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })

	clock.t = clock.t.Add(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := newTestBreaker(clock, nil)
	boom := errors.New("provider down")
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })

	clock.t = clock.t.Add(11 * time.Second)
	_ = cb.Execute(func() error { return boom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_IgnoresNonFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	userErr := errors.New("bad request")
	cb := newTestBreaker(clock, func(err error) bool { return !errors.Is(err, userErr) })

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return userErr })
	}
	assert.Equal(t, StateClosed, cb.State())
}
