package memprobe

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seq returns a probe reporting the given data segment sizes in order.
func seq(data ...uint64) (Probe, *int) {
	calls := 0
	return func() (Usage, error) {
		u := Usage{Data: data[calls], Resident: 1 << 40}
		calls++
		return u, nil
	}, &calls
}

func TestGuardPasses(t *testing.T) {
	probe, calls := seq(10, 20)
	ran := false

	err := Guard{Ceiling: 100, Probe: probe}.Run(func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 2, *calls)
}

func TestGuardFailsBefore(t *testing.T) {
	probe, calls := seq(200)
	ran := false

	err := Guard{Ceiling: 100, Probe: probe}.Run(func() error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, *calls)

	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "before", le.Phase)
	assert.Equal(t, uint64(200), le.Usage.Data)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, "already using 200 bytes which is over the limit of 100 bytes", err.Error())
}

func TestGuardFailsAfter(t *testing.T) {
	probe, _ := seq(10, 500)

	err := Guard{Ceiling: 100, Probe: probe}.Run(func() error { return nil })

	var le *LimitError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "after", le.Phase)
	assert.Equal(t, uint64(100), le.Limit)
	assert.Equal(t, "using 500 bytes which is over the limit of 100 bytes", err.Error())
}

func TestGuardBodyError(t *testing.T) {
	probe, calls := seq(10, 500)
	boom := errors.New("boom")

	err := Guard{Ceiling: 100, Probe: probe}.Run(func() error { return boom })
	assert.Equal(t, boom, err)
	assert.Equal(t, 1, *calls)
}

func TestGuardDisabled(t *testing.T) {
	err := Guard{Probe: func() (Usage, error) {
		t.Fatal("probe called with no ceiling")
		return Usage{}, nil
	}}.Run(func() error { return nil })
	assert.NoError(t, err)
}

func TestGuardProbeError(t *testing.T) {
	fail := errors.New("no proc")
	err := Guard{Ceiling: 1, Probe: func() (Usage, error) { return Usage{}, fail }}.Run(func() error { return nil })
	assert.ErrorIs(t, err, fail)
	assert.NotErrorIs(t, err, ErrLimitExceeded)
}

func TestCurrent(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("statm counters are only read on linux")
	}
	u, err := Current()
	require.NoError(t, err)
	assert.NotZero(t, u.Resident)
	assert.GreaterOrEqual(t, u.Size, u.Resident)
}

func TestLimitGenerous(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("statm counters are only read on linux")
	}
	assert.NoError(t, Limit(1<<50, func() error { return nil }))
}
