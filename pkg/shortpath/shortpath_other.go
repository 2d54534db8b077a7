//go:build !windows

package shortpath

func resolve(string) string {
	return ""
}
