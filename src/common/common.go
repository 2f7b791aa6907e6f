package common

import (
	"runtime/debug"
)

func HandlePanic() {
	if r := recover(); r != nil {
		Logger.Sugar().Errorf("catch panic: %v \n stack: %s", r, string(debug.Stack()))
	}
}

// Go runs fn on its own goroutine; a panic in fn is logged instead of crashing the process.
func Go(fn func()) {
	go func() {
		defer HandlePanic()
		fn()
	}()
}
