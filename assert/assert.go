package assert

import (
	"context"
	"fmt"
	"time"
)

func Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}

func AssertDeadline(ctx context.Context) {
	if ctx == nil {
		panic("context is nil")
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		panic("deadline not set")
	}
	if deadline.Before(time.Now()) {
		panic("deadline has already passed")
	}
}

func AssertNotEmpty(s string) {
	if s == "" {
		panic("expected non-empty string")
	}
}

func AssertNotNil(a any) {
	if a == nil {
		panic("expect non-nil value")
	}
}

// AssertInRange panics unless lo <= v < hi.
func AssertInRange(v, lo, hi int, what string) {
	if v < lo || v >= hi {
		panic(fmt.Sprintf("%s out of range: %d not in [%d, %d)", what, v, lo, hi))
	}
}

func AssertNonNegative(v int, what string) {
	if v < 0 {
		panic(fmt.Sprintf("%s is negative: %d", what, v))
	}
}
