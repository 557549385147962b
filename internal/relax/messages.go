package relax

import (
	"fmt"
	"strings"
)

func exactMessage(count int) string {
	return fmt.Sprintf("Found %d events matching your exact conditions.", count)
}

func relaxedMessage(count, level int, relaxed []string) string {
	msg := fmt.Sprintf("Found %d events after relaxing search conditions (level %d)", count, level)
	if len(relaxed) == 0 {
		return msg + "."
	}
	return msg + ": " + strings.Join(relaxed, "; ")
}

func failureMessage(found, minCount int) string {
	return fmt.Sprintf("Only found %d events after maximum relaxation (minimum requested: %d). "+
		"Suggestions: broaden the date range, lower the minimum result count, or remove the region constraint.",
		found, minCount)
}
