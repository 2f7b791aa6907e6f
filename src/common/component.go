package common

import "context"

// Component is a long-running part of the process. Run blocks until ctx is done
// or the component fails.
type Component interface {
	Name() string
	Run(context.Context) error
}
