package grid

import "fmt"

// Method selects how a column is read.
type Method string

// Extraction methods.
const (
	// Direct reads the whole column in one call.
	Direct Method = "direct"

	// Iterative reads the column one timestep at a time.
	Iterative Method = "iterative"
)

// ParseMethod parses a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Direct, Iterative:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m Method) String() string { return string(m) }

// Extract reads the column at (y, x) of variable with method m.
func (m Method) Extract(f File, variable string, x, y int) (Column, error) {
	switch m {
	case Direct:
		return ExtractDirect(f, variable, x, y)
	case Iterative:
		return ExtractIterative(f, variable, x, y, f.ZLen())
	default:
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
	}
}

// ExtractDirect reads the full time axis of variable at (y, x) with a single
// bulk read.
func ExtractDirect(f File, variable string, x, y int) (Column, error) {
	return f.ReadColumn(variable, y, x)
}

// ExtractIterative reads zlen timesteps of variable at (y, x), one element per
// read, into a float64 buffer. The column reports the buffer's element size.
func ExtractIterative(f File, variable string, x, y, zlen int) (Column, error) {
	values := make([]float64, zlen)
	for t := range values {
		v, err := f.ReadPoint(variable, t, y, x)
		if err != nil {
			return Column{}, err
		}
		values[t] = v
	}
	return Column{Values: values, ItemSize: 8}, nil
}
