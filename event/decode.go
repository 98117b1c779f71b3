package event

// UnwrapSequence concatenates the bytes of buf at the offsets in seq,
// big-endian, into a u64. seq must have length 1-3; callers (the config
// loader) enforce that invariant when a Rules value is built.
func UnwrapSequence(buf []byte, seq []int) uint64 {
	var v uint64
	for _, off := range seq {
		v = (v << 8) | uint64(buf[off])
	}
	return v
}
