//go:build unix

package main

import (
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
)

// restart replaces the process image with a fresh copy of the binary.
// It only returns on failure.
func restart(log *zap.SugaredLogger) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	log.Infof("restarting %s", exe)
	log.Sync() //nolint:errcheck // best effort before exec
	return syscall.Exec(exe, os.Args, os.Environ())
}
