package tracking

import (
	"errors"
	"fmt"
)

var (
	errEmptyFrame = errors.New("empty frame")
	errInitFailed = errors.New("tracker init failed")
)

type panicError struct{ v interface{} }

func (p panicError) Error() string {
	return fmt.Sprintf("tracker panicked: %v", p.v)
}
