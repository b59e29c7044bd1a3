package convert

import (
	"fmt"
	"image/color"
)

// Visual describes a TrueColor visual: how many bits each channel keeps
// and where it sits in a packed pixel value.
//
// Supported depths:
//
//   - 24: 8/8/8, pixel = 0xRRGGBB
//   - 16: 5/6/5
//   - 15: 5/5/5
//   - 8:  3/3/2
type Visual struct {
	Depth int

	redBits, greenBits, blueBits uint
}

// NewVisual returns the TrueColor visual for depth.
func NewVisual(depth int) (Visual, error) {
	switch depth {
	case 24:
		return Visual{Depth: 24, redBits: 8, greenBits: 8, blueBits: 8}, nil
	case 16:
		return Visual{Depth: 16, redBits: 5, greenBits: 6, blueBits: 5}, nil
	case 15:
		return Visual{Depth: 15, redBits: 5, greenBits: 5, blueBits: 5}, nil
	case 8:
		return Visual{Depth: 8, redBits: 3, greenBits: 3, blueBits: 2}, nil
	default:
		return Visual{}, fmt.Errorf("convert: unsupported visual depth %d", depth)
	}
}

// Channels is a colour with 16 bits per channel.
type Channels struct {
	Red, Green, Blue uint16
}

// Alloc returns the closest colour the visual can show together with its
// packed pixel value. The returned channels are the displayable values
// scaled back to 16 bits (v*65535/max), not the requested ones.
func (v Visual) Alloc(c Channels) (pixel uint32, shown Channels) {
	r := reduce(c.Red, v.redBits)
	g := reduce(c.Green, v.greenBits)
	b := reduce(c.Blue, v.blueBits)

	pixel = r<<(v.greenBits+v.blueBits) | g<<v.blueBits | b
	shown = Channels{
		Red:   expand(r, v.redBits),
		Green: expand(g, v.greenBits),
		Blue:  expand(b, v.blueBits),
	}
	return pixel, shown
}

// Channels decodes a packed pixel back into 16-bit channels.
func (v Visual) Channels(pixel uint32) Channels {
	b := pixel & mask(v.blueBits)
	g := (pixel >> v.blueBits) & mask(v.greenBits)
	r := (pixel >> (v.greenBits + v.blueBits)) & mask(v.redBits)
	return Channels{
		Red:   expand(r, v.redBits),
		Green: expand(g, v.greenBits),
		Blue:  expand(b, v.blueBits),
	}
}

// RGBA decodes a packed pixel into an opaque color.RGBA.
func (v Visual) RGBA(pixel uint32) color.RGBA {
	c := v.Channels(pixel)
	return color.RGBA{
		R: uint8(c.Red >> 8),
		G: uint8(c.Green >> 8),
		B: uint8(c.Blue >> 8),
		A: 0xFF,
	}
}

// FromColor converts any color.Color to 16-bit channels, ignoring alpha.
func FromColor(c color.Color) Channels {
	r, g, b, _ := c.RGBA()
	return Channels{Red: uint16(r), Green: uint16(g), Blue: uint16(b)}
}

func mask(bits uint) uint32 {
	return 1<<bits - 1
}

// reduce keeps the top bits of a 16-bit channel.
func reduce(v uint16, bits uint) uint32 {
	return uint32(v) >> (16 - bits)
}

// expand scales a bits-wide value back to the full 16-bit range.
func expand(v uint32, bits uint) uint16 {
	return uint16(v * 0xFFFF / mask(bits))
}
