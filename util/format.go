package util

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize converts a byte count to a human-readable string.
func FormatSize(sizeBytes int64) string {
	if sizeBytes < 1024 {
		return fmt.Sprintf("%d B", sizeBytes)
	}
	size := float64(sizeBytes)
	i := 0
	for size >= 1024 && i < len(sizeUnits)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[i])
}

// FormatSpeed converts bytes per second to a human-readable rate.
func FormatSpeed(bytesPerSecond float64) string {
	i := 0
	for bytesPerSecond >= 1024 && i < len(sizeUnits)-1 {
		bytesPerSecond /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s/s", bytesPerSecond, sizeUnits[i])
}
