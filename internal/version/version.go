// ABOUTME: Version constants for the playback service
// ABOUTME: Reported in logs and the -version flag
package version

const (
	// Version is the software version.
	Version = "0.1.0"

	// Product is the product name reported to hosts.
	Product = "Voicewire Playback Service"

	// Manufacturer identifies the project.
	Manufacturer = "Voicewire"
)
