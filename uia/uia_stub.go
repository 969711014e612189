//go:build !windows

package uia

import "fmt"

type stubReader struct{}

func newPlatformReader() Reader { return stubReader{} }

func (stubReader) Available() bool { return false }

func (stubReader) ReadSelection() (string, error) {
	return "", fmt.Errorf("accessibility selection reading not implemented for this platform")
}
