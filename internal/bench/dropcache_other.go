//go:build !linux

package bench

import (
	"fmt"
	"runtime"
)

func dropCache(path string) error {
	return fmt.Errorf("page cache eviction is not supported on %s", runtime.GOOS)
}
