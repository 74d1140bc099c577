package writer

import "github.com/Faultbox/3dsconv/pkg/scene"

// cryTable maps a full-intensity color, 5 bits per channel, to the chroma
// byte of a CRY color: the blue-red axis in the high nibble and the
// red-green axis in the low nibble. Grays land on 0x88.
var cryTable = buildCRYTable()

func buildCRYTable() *[1 << 15]byte {
	var t [1 << 15]byte
	for i := range t {
		r := ((i >> 10) & 0x1f) * 255 / 31
		g := ((i >> 5) & 0x1f) * 255 / 31
		b := (i & 0x1f) * 255 / 31
		hi := 8 + (b-r)*7/255
		lo := 8 + (r-g)*7/255
		t[i] = byte(hi<<4 | lo)
	}
	return &t
}

// RGBToCRY packs a color into a 16-bit CRY value: chroma in the high byte,
// intensity (the brightest channel) in the low byte.
func RGBToCRY(c scene.RGB) uint16 {
	red, green, blue := int(c.R), int(c.G), int(c.B)
	intensity := max(red, green, blue)

	var rc, gc, bc int
	if intensity != 0 {
		rc = red * 255 / intensity
		gc = green * 255 / intensity
		bc = blue * 255 / intensity
	}
	offset := (rc&0xf8)<<7 | (gc&0xf8)<<2 | (bc&0xf8)>>3
	return uint16(cryTable[offset])<<8 | uint16(intensity&0xff)
}

// swappedCRY is RGBToCRY with its bytes exchanged, as the legacy layout
// stores it.
func swappedCRY(c scene.RGB) uint16 {
	cry := RGBToCRY(c)
	return cry>>8 | cry<<8
}
