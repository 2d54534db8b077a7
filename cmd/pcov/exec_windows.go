//go:build windows

package main

import "errors"

// Windows has no execve, so the caller always falls back to a subprocess
func replaceProcess(string, []string) error {
	return errors.New("exec not supported")
}
