// ABOUTME: Version constants for speechenc
// ABOUTME: Reported in client/hello device info and by the version command
package version

const (
	Version      = "0.3.0"
	Product      = "speechenc"
	Manufacturer = "Resonate"
)
