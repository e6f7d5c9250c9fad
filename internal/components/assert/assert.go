// Package assert panics on programmer errors, it is not meant for input
// validation.
package assert

import "fmt"

// NotNil panics when a required collaborator was not provided.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

// NoError panics on an error that can only come from a programming mistake.
func NoError(err error) {
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %v", err))
	}
}
