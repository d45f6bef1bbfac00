// Package assert holds startup-time invariants for singleton construction.
package assert

import (
	"fmt"
	"reflect"
	"runtime"
)

// NotCircular panics when the calling function already appears higher up the
// stack, which means a Default...() constructor is being re-entered through
// its own dependency chain.
func NotCircular() {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	first, more := frames.Next()
	if !more {
		return
	}
	for {
		frame, more := frames.Next()
		if frame.Function == first.Function {
			panic(fmt.Sprintf("circular dependency detected in %s", first.Function))
		}
		if !more {
			return
		}
	}
}

// NotNil panics when v is nil or a typed nil.
func NotNil(v interface{}) {
	if isNil(v) {
		panic("unexpected nil value")
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
