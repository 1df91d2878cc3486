// Package main provides the entry point for the poolctl thread-pool
// controller CLI.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var ec exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		if errors.Is(err, errSevereConflicts) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
