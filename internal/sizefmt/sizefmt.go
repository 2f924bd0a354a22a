package sizefmt

import "fmt"

// Unknown is returned when the source reported no byte count at all.
const Unknown = "Unknown size"

var units = [...]string{"B", "KB", "MB", "GB"}

// Size renders a byte count as a human-readable magnitude with two
// fractional digits. A nil count means the size is unknown. The unit
// sequence stops at GB; larger values are still labeled GB.
func Size(bytes *int64) string {
	if bytes == nil {
		return Unknown
	}
	v := float64(*bytes)
	for _, unit := range units {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f GB", v)
}
