package main

import (
	"errors"
	"fmt"
	"io"
)

// CleanupFuncs runs deferred teardown in reverse order of registration.
type CleanupFuncs []func() error

func (cf *CleanupFuncs) Defer(f func() error) {
	*cf = append(*cf, f)
}

// DeferClose registers c to be closed, naming it in the returned error.
func (cf *CleanupFuncs) DeferClose(name string, c io.Closer) {
	cf.Defer(func() error {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close %s: %s", name, err)
		}
		return nil
	})
}

// Cleanup runs every func once, even if some fail, and empties the list.
func (cf *CleanupFuncs) Cleanup() error {
	funcs := *cf
	*cf = nil

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
