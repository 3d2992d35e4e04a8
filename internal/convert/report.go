package convert

import (
	"fmt"
	"strings"
)

// Warning texts that close skipped-feature report lines.
const (
	WarnNonSolid = "WARNING: non-solid geometry found"
	WarnUnclosed = "WARNING: unclosed or degenerate polygon"
)

func ParcelLine(reference string, area float64) string {
	return fmt.Sprintf("Reference: %s, (%.4f m^2)", reference, area)
}

func NonSolidLine(reference string) string {
	return fmt.Sprintf("Reference: %s. %s", reference, WarnNonSolid)
}

func UnclosedLine(reference string) string {
	return fmt.Sprintf("Reference: %s. %s", reference, WarnUnclosed)
}

// IsWarning reports whether a report line describes a skipped feature.
func IsWarning(line string) bool {
	return strings.HasSuffix(line, WarnNonSolid) || strings.HasSuffix(line, WarnUnclosed)
}
