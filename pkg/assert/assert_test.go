package assert

import "testing"

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
}

func TestNotNil(t *testing.T) {
	var p *int
	mustPanic(t, func() { NotNil(nil) })
	mustPanic(t, func() { NotNil(p) })
	NotNil(1)
	NotNil(&struct{}{})
}

var depth int

func recursiveConstructor() {
	NotCircular()
	if depth < 1 {
		depth++
		recursiveConstructor()
	}
}

func TestNotCircular(t *testing.T) {
	depth = 0
	mustPanic(t, recursiveConstructor)

	NotCircular()
}
