//go:build !windows

package clipboard

import "fmt"

func simulateCopy(v CopyVariant) error {
	return fmt.Errorf("copy simulation (%s) not implemented for this platform", v)
}
