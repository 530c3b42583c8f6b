// Package conv appends decimal, hex and fixed-point text to byte slices
// without fmt or strconv, for console output on small targets.
package conv

const hexd = "0123456789ABCDEF"

// AppendUint appends the base-10 form of n.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, buf[i:]...)
}

// AppendInt appends the base-10 form of n, with a leading '-' if negative.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		return AppendUint(append(dst, '-'), uint64(-n))
	}
	return AppendUint(dst, uint64(n))
}

// AppendHex appends the low digits nibbles of v, uppercase, zero-padded, no 0x.
func AppendHex(dst []byte, v uint64, digits int) []byte {
	for s := (digits - 1) * 4; s >= 0; s -= 4 {
		dst = append(dst, hexd[(v>>uint(s))&0xF])
	}
	return dst
}

// AppendFixed appends v scaled down by 10^frac with exactly frac decimals,
// e.g. AppendFixed(dst, 33012, 4) -> "3.3012".
func AppendFixed(dst []byte, v int64, frac int) []byte {
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}
	div := int64(1)
	for i := 0; i < frac; i++ {
		div *= 10
	}
	dst = AppendUint(dst, uint64(v/div))
	if frac == 0 {
		return dst
	}
	dst = append(dst, '.')
	rem := v % div
	for div /= 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+rem/div))
		rem %= div
	}
	return dst
}

// Itoa is AppendInt into a fresh string.
func Itoa(n int) string { return string(AppendInt(nil, int64(n))) }
