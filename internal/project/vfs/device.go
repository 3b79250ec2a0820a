package vfs

// DeviceChecker is implemented by file systems that can tell whether two
// paths live on the same device. A rename is only atomic within a device.
type DeviceChecker interface {
	SameDevice(a, b string) (bool, error)
}

// Ensure OSFS implements DeviceChecker.
var _ DeviceChecker = (*OSFS)(nil)
