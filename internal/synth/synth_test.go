package synth

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternDeterministic(t *testing.T) {
	shape := [3]int{4, 8, 8}
	a := Pattern(shape)
	b := Pattern(shape)

	require.Len(t, a, 4*8*8)
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("element %d differs: %v != %v", i, a[i], b[i])
		}
	}
}

func TestPatternValues(t *testing.T) {
	p := Pattern([3]int{40, 3, 5})
	plane := 3 * 5

	base := float32(math.Sin(math.Hypot(256, 256) / 64))
	assert.Equal(t, base, p[0])

	// (y=2, x=4) at z=32
	b := float32(math.Sin(math.Hypot(252, 254) / 64))
	assert.Equal(t, b+float32(math.Sin(1)), p[32*plane+2*5+4])
}

func TestNetCDF3RoundTrip(t *testing.T) {
	shape := [3]int{4, 8, 6}
	path := filepath.Join(t.TempDir(), "pattern.nc")
	require.NoError(t, NetCDF3(path, shape, "ripple"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cf, err := cdf.Open(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "z"}, cf.Header.Dimensions(""))
	assert.Equal(t, []int{6, 8, 4}, cf.Header.Lengths(""))
	assert.Equal(t, []string{"ripple"}, cf.Header.Variables())
	assert.Equal(t, []string{"z", "y", "x"}, cf.Header.Dimensions("ripple"))

	got := make([]float32, 4*8*6)
	_, err = cf.Reader("ripple", nil, nil).Read(got)
	require.NoError(t, err)
	assert.Equal(t, Pattern(shape), got)
}

func TestTempNetCDF3(t *testing.T) {
	dir := t.TempDir()
	shape := [3]int{4, 8, 8}

	a, err := TempNetCDF3(dir, shape)
	require.NoError(t, err)
	b, err := TempNetCDF3(dir, shape)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, dir, filepath.Dir(a))
	assert.True(t, strings.HasSuffix(a, ".nc"))

	ab, err := os.ReadFile(a)
	require.NoError(t, err)
	bb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ab, bb)
}

func TestNetCDF3BadShape(t *testing.T) {
	err := NetCDF3(filepath.Join(t.TempDir(), "bad.nc"), [3]int{0, 2, 2}, "v")
	assert.Error(t, err)
}
