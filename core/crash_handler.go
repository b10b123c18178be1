package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// crashReset restores the terminal before the crash report is printed
// Stored atomically since goroutines may crash while main is still wiring the hook
var crashReset atomic.Pointer[func()]

// SetCrashReset installs the function run by HandleCrash before printing the report
// Keeps core independent of the terminal package
func SetCrashReset(fn func()) {
	if fn == nil {
		crashReset.Store(nil)
		return
	}
	crashReset.Store(&fn)
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if fn := crashReset.Load(); fn != nil {
		(*fn)()
	}

	os.Stdout.Sync()

	// \r\n keeps the report readable if the terminal is still in raw mode
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
