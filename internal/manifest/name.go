package manifest

import "strings"

// RepoName maps a manifest package name onto the hosting repository name:
// the last non-empty path segment. "acme/lib" and "acme/lib/" give "lib",
// "lib" is returned unchanged, and a name without any non-empty segment
// gives "".
func RepoName(manifestName string) string {
	segments := strings.Split(strings.TrimSpace(manifestName), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return ""
}
