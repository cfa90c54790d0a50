// ABOUTME: Capture device enumeration
// ABOUTME: Lists miniaudio capture devices and resolves names to IDs
package source

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Device describes one capture device.
type Device struct {
	Name      string
	IsDefault bool
}

// ListCaptureDevices enumerates the capture devices miniaudio can see.
func ListCaptureDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("source: initializing audio context: %w", err)
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("source: enumerating capture devices: %w", err)
	}
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}
	return devices, nil
}

// findDeviceID resolves a device name to its miniaudio ID.
func findDeviceID(ctx *malgo.AllocatedContext, devType malgo.DeviceType, name string) (malgo.DeviceID, error) {
	kind := malgo.Capture
	if devType == malgo.Loopback {
		kind = malgo.Playback
	}
	infos, err := ctx.Devices(kind)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("source: enumerating devices: %w", err)
	}
	for _, info := range infos {
		if info.Name() == name {
			return info.ID, nil
		}
	}
	return malgo.DeviceID{}, fmt.Errorf("source: device %q not found", name)
}
