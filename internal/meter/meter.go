package meter

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoElapsed is returned when a rate is requested for a timer that has not
// measured a positive interval.
var ErrNoElapsed = errors.New("no elapsed time measured")

// Clock returns the current time.
type Clock func() time.Time

// Timer records the start and end of a region.
type Timer struct {
	now     Clock
	start   time.Time
	end     time.Time
	stopped bool
	log     logrus.FieldLogger
}

// New returns a timer driven by the wall clock.
func New() *Timer {
	return NewWithClock(time.Now)
}

// NewWithClock returns a timer driven by c.
func NewWithClock(c Clock) *Timer {
	return &Timer{now: c, log: logrus.StandardLogger()}
}

// SetLogger replaces the logger used by LogRate.
func (t *Timer) SetLogger(log logrus.FieldLogger) {
	t.log = log
}

// Start records the start of the region.
func (t *Timer) Start() {
	t.start = t.now()
	t.stopped = false
}

// Stop records the end of the region.
func (t *Timer) Stop() {
	t.end = t.now()
	t.stopped = true
}

// Elapsed returns the measured interval, or zero if the timer was never stopped.
func (t *Timer) Elapsed() time.Duration {
	if !t.stopped {
		return 0
	}
	return t.end.Sub(t.start)
}

// Time runs fn between Start and Stop. The end time is recorded even when fn
// returns an error or panics.
func (t *Timer) Time(fn func() error) error {
	t.Start()
	defer t.Stop()
	return fn()
}

// TotalBytes returns the number of bytes held by an array of the given shape.
func TotalBytes(shape []int, itemSize int) int64 {
	n := int64(itemSize)
	for _, d := range shape {
		n *= int64(d)
	}
	return n
}

func (t *Timer) seconds() (float64, error) {
	s := t.Elapsed().Seconds()
	if s <= 0 {
		return 0, ErrNoElapsed
	}
	return s, nil
}

// BytesPerSecond returns the throughput of reading an array of the given shape
// and element size in the measured interval.
func (t *Timer) BytesPerSecond(shape []int, itemSize int) (float64, error) {
	s, err := t.seconds()
	if err != nil {
		return 0, err
	}
	return float64(TotalBytes(shape, itemSize)) / s, nil
}

// MegabytesPerSecond is BytesPerSecond in units of 1024² bytes.
func (t *Timer) MegabytesPerSecond(shape []int, itemSize int) (float64, error) {
	s, err := t.seconds()
	if err != nil {
		return 0, err
	}
	return megabytes(shape, itemSize) / s, nil
}

// LogRate logs the size, duration and MB/s rate of the measured read at debug
// level. Nothing is logged when no interval was measured.
func (t *Timer) LogRate(shape []int, itemSize int) {
	s, err := t.seconds()
	if err != nil {
		return
	}
	mb := megabytes(shape, itemSize)
	t.log.Debugf("%.3f MB in %.3f seconds at %.3f MB / sec", mb, s, mb/s)
}

func megabytes(shape []int, itemSize int) float64 {
	elems := int64(1)
	for _, d := range shape {
		elems *= int64(d)
	}
	return float64(elems) / (1024 * 1024) * float64(itemSize)
}
