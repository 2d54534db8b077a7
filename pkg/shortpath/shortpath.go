// Package shortpath resolves legacy 8.3 aliases of Windows paths.
package shortpath

// Of returns the short form of path, or "" when the platform has no short
// paths or the short form is identical to path
func Of(path string) string {
	short := resolve(path)
	if short == path {
		return ""
	}
	return short
}
