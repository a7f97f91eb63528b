//go:build occa

package utils

import (
	"fmt"

	"github.com/notargets/gocca"
)

// ProbeCUDADevice opens and releases a CUDA device through OCCA, confirming a
// driver and device are present before a compiled test binary is launched
func ProbeCUDADevice(deviceID int) (string, error) {
	props := fmt.Sprintf(`{"mode": "CUDA", "device_id": %d}`, deviceID)
	device, err := gocca.NewDevice(props)
	if err != nil {
		return "", fmt.Errorf("no CUDA device %d: %w", deviceID, err)
	}
	defer device.Free()
	return device.Mode(), nil
}
