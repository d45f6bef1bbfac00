package codec

// ownedString holds an engine-allocated string until Release hands it back.
type ownedString struct {
	engine   Engine
	ptr      StringPtr
	released bool
}

func takeString(engine Engine, ptr StringPtr) *ownedString {
	if ptr == 0 {
		return nil
	}
	return &ownedString{engine: engine, ptr: ptr}
}

func (s *ownedString) String() string {
	if s == nil || s.released {
		return ""
	}
	return s.engine.ReadString(s.ptr)
}

// Release frees the string exactly once; later calls do nothing.
func (s *ownedString) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	s.engine.FreeString(s.ptr)
}
