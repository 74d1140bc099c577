package writer

import "math"

// toInt rounds to the nearest integer, halves up.
func toInt(x float64) int {
	return int(math.Floor(x + 0.5))
}

// toFixed converts to a 0.14 fixed point value masked to 16 bits.
func toFixed(x float64) int {
	return toInt(16384*x) & 0xffff
}

// toShort is toFixed read back as a signed 16-bit value.
func toShort(x float64) int {
	return int(int16(uint16(toFixed(x))))
}

// toByte converts a [0,1] fraction to a 0.8 fixed point value.
func toByte(x float64) int {
	return int(x * 255.9)
}
