// Package browser opens reports in the system web browser.
package browser

import (
	"os/exec"
	"runtime"
)

// Command returns the launcher invocation for target on goos
func Command(goos, target string) (string, []string) {
	switch goos {
	case "windows":
		return "cmd", []string{"/c", "start", "", target}
	case "darwin":
		return "open", []string{target}
	default:
		return "xdg-open", []string{target}
	}
}

// FileURL returns the address of a local file as the browser launcher wants
// it: a bare path on windows and a file:// URL elsewhere
func FileURL(goos, path string) string {
	if goos == "windows" {
		return path
	}
	return "file://" + path
}

// Open starts the default browser on target without waiting for it
func Open(target string) error {
	name, args := Command(runtime.GOOS, target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
