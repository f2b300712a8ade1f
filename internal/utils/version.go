package utils

import (
	"fmt"
	"strings"
)

// SplitVersion splits a dotted version into major, minor and patch.
// Missing or empty components default to "0"; anything past the third is ignored.
func SplitVersion(v string) (major, minor, patch string) {
	parts := make([]string, 3)
	for i, p := range strings.SplitN(v, ".", 4) {
		if i >= 3 {
			break
		}

		parts[i] = strings.TrimSpace(p)
	}

	for i := range parts {
		if parts[i] == "" {
			parts[i] = "0"
		}
	}

	return parts[0], parts[1], parts[2]
}

// VersionDefines returns the <NAME>_VERSION_{MAJOR,MINOR,PATCH} defines for a project
func VersionDefines(project, version string) []string {
	prefix := strings.ToUpper(project)
	major, minor, patch := SplitVersion(version)

	return []string{
		fmt.Sprintf("%s_VERSION_MAJOR=%s", prefix, major),
		fmt.Sprintf("%s_VERSION_MINOR=%s", prefix, minor),
		fmt.Sprintf("%s_VERSION_PATCH=%s", prefix, patch),
	}
}
