//go:build !windows
// +build !windows

package local

// isAttrHidden always returns false on non-Windows systems
func isAttrHidden(path string) bool {
	return false
}
