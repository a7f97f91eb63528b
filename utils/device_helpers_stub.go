//go:build !occa

package utils

import "errors"

// ErrNoOCCA is returned by ProbeCUDADevice when built without the occa tag
var ErrNoOCCA = errors.New("device probing requires building with -tags occa")

// ProbeCUDADevice is unavailable without OCCA
func ProbeCUDADevice(deviceID int) (string, error) {
	return "", ErrNoOCCA
}
