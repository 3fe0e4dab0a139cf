package unreal

import "io"

// ReadCompactIndex decodes the engine's variable-length signed integer
// encoding. The first byte carries the sign (0x80), a continuation bit
// (0x40) and six value bits; the next three bytes carry a continuation bit
// and seven value bits each. A fifth byte, if reached, carries eight value
// bits and ends the value.
func ReadCompactIndex(r io.ByteReader) (int32, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	v := uint32(b0 & 0x3F)
	if b0&0x40 != 0 {
		shift := uint(6)
		for i := 0; i < 4; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return 0, err
			}
			if i == 3 {
				v |= uint32(b) << shift
				break
			}
			v |= uint32(b&0x7F) << shift
			shift += 7
			if b&0x80 == 0 {
				break
			}
		}
	}
	if b0&0x80 != 0 {
		return -int32(v), nil
	}
	return int32(v), nil
}

// AppendCompactIndex appends the compact encoding of v to b.
func AppendCompactIndex(b []byte, v int32) []byte {
	abs := uint32(v)
	if v < 0 {
		abs = uint32(-int64(v))
	}
	first := byte(abs & 0x3F)
	if v < 0 {
		first |= 0x80
	}
	abs >>= 6
	if abs > 0 {
		first |= 0x40
	}
	b = append(b, first)
	for i := 0; abs > 0; i++ {
		if i == 3 {
			return append(b, byte(abs))
		}
		next := byte(abs & 0x7F)
		abs >>= 7
		if abs > 0 {
			next |= 0x80
		}
		b = append(b, next)
	}
	return b
}
