package native

// QueryOrWrite drives the two-call convention of a query-or-write buffer.
//
// call is invoked with a nil pointer and zero capacity first and must return
// the required element count. An empty buf stops there and the required count
// is returned. A buf shorter than the requirement fails with a
// *BufferTooSmallError and the native function is not called again. Otherwise
// call runs a second time with the buffer and its result is returned.
func QueryOrWrite[T any](param string, buf []T, call func(ptr *T, capacity uint32) uint32) (uint32, error) {
	required := call(nil, 0)
	if len(buf) == 0 {
		return required, nil
	}
	if uint32(len(buf)) < required {
		return required, &BufferTooSmallError{Param: param, Required: required, Capacity: uint32(len(buf))}
	}
	return call(&buf[0], uint32(len(buf))), nil
}

// Write calls an always-write function with the whole buffer. A nil or empty
// buffer is passed as a null pointer with zero capacity.
func Write[T any](buf []T, call func(ptr *T, capacity uint32) uint32) uint32 {
	return call(SliceData(buf), uint32(len(buf)))
}
