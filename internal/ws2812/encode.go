package ws2812

const (
	// bitZero is a short high pulse (~0.31us at 6.5MHz).
	bitZero byte = 0b1100_0000
	// bitOne is a long high pulse (~0.92us at 6.5MHz).
	bitOne byte = 0b1111_1100
)

// EncodeFrame writes the reset prefix followed by the bit-expanded G-R-B
// bytes of leds into dst. dst must be at least ResetBytes+len(leds)*BytesPerLED
// long; the whole prefix and payload region is rewritten.
func EncodeFrame(dst []byte, leds []Color) {
	clear(dst)
	pos := ResetBytes
	for _, c := range leds {
		for _, b := range c.WireOrder() {
			for bit := 7; bit >= 0; bit-- {
				if b&(1<<bit) != 0 {
					dst[pos] = bitOne
				} else {
					dst[pos] = bitZero
				}
				pos++
			}
		}
	}
}

// DecodeFrame reverses EncodeFrame. Bytes that are neither pulse pattern
// decode as zero bits.
func DecodeFrame(frame []byte) []Color {
	if len(frame) < ResetBytes {
		return nil
	}
	payload := frame[ResetBytes:]
	leds := make([]Color, len(payload)/BytesPerLED)
	for i := range leds {
		var grb [3]byte
		for j := range grb {
			for _, p := range payload[i*BytesPerLED+j*8 : i*BytesPerLED+j*8+8] {
				grb[j] <<= 1
				if p == bitOne {
					grb[j] |= 1
				}
			}
		}
		leds[i] = Color{R: grb[1], G: grb[0], B: grb[2]}
	}
	return leds
}
