//go:build !windows

package main

import (
	"os"
	"syscall"
)

// replaceProcess execs the subcommand in place so it receives signals directly
func replaceProcess(cmdPath string, args []string) error {
	return syscall.Exec(cmdPath, args, os.Environ())
}
