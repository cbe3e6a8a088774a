package raster

import (
	"encoding/binary"
	"fmt"
)

// bitmap is a decoded uncompressed BMP. Only the dialects a logo upload can
// reasonably arrive in are supported: 1, 8 or 24 bits per pixel, no
// compression. Anything else is rejected before a job is composed.
type bitmap struct {
	width   int
	height  int
	topDown bool // BMP stores rows bottom-up unless height is negative
	bpp     int
	stride  int
	palette [][3]byte // 8bpp only: index -> R,G,B
	pix     []byte
}

func decodeBMP(data []byte) (*bitmap, error) {
	if len(data) < 54 {
		return nil, fmt.Errorf("bmp: file too short (%d bytes)", len(data))
	}
	if data[0] != 'B' || data[1] != 'M' {
		return nil, fmt.Errorf("bmp: bad signature %q", string(data[:2]))
	}

	dataOffset := int(binary.LittleEndian.Uint32(data[10:14]))
	headerSize := int(binary.LittleEndian.Uint32(data[14:18]))
	width := int(int32(binary.LittleEndian.Uint32(data[18:22])))
	height := int(int32(binary.LittleEndian.Uint32(data[22:26])))
	bpp := int(binary.LittleEndian.Uint16(data[28:30]))
	compression := binary.LittleEndian.Uint32(data[30:34])

	if compression != 0 {
		return nil, fmt.Errorf("bmp: compression mode %d not supported", compression)
	}
	if bpp != 1 && bpp != 8 && bpp != 24 {
		return nil, fmt.Errorf("bmp: %d bpp not supported (want 1, 8 or 24)", bpp)
	}
	if width <= 0 {
		return nil, fmt.Errorf("bmp: invalid width %d", width)
	}
	if height == 0 {
		return nil, fmt.Errorf("bmp: invalid height 0")
	}

	b := &bitmap{
		width:   width,
		bpp:     bpp,
		topDown: height < 0,
	}
	if height < 0 {
		b.height = -height
	} else {
		b.height = height
	}

	// Rows are padded to a 4-byte boundary.
	b.stride = ((width*bpp + 31) / 32) * 4

	if bpp == 8 {
		// The palette sits between the info header and the pixel data.
		palOff := 14 + headerSize
		palLen := (dataOffset - palOff) / 4
		if palLen <= 0 || palLen > 256 || palOff+palLen*4 > len(data) {
			return nil, fmt.Errorf("bmp: missing or truncated palette")
		}
		b.palette = make([][3]byte, palLen)
		for i := 0; i < palLen; i++ {
			o := palOff + i*4 // stored B,G,R,reserved
			b.palette[i] = [3]byte{data[o+2], data[o+1], data[o]}
		}
	}

	need := dataOffset + b.stride*b.height
	if need > len(data) {
		return nil, fmt.Errorf("bmp: pixel data truncated (need %d bytes, have %d)", need, len(data))
	}
	b.pix = data[dataOffset:]
	return b, nil
}

// at returns the R,G,B value of the pixel at (x, y) with the origin at the
// top-left regardless of the stored row order.
func (b *bitmap) at(x, y int) (r, g, bl byte) {
	row := y
	if !b.topDown {
		row = b.height - 1 - y
	}
	base := row * b.stride

	switch b.bpp {
	case 24:
		o := base + x*3 // stored B,G,R
		return b.pix[o+2], b.pix[o+1], b.pix[o]
	case 8:
		idx := int(b.pix[base+x])
		if idx >= len(b.palette) {
			idx = len(b.palette) - 1
		}
		p := b.palette[idx]
		return p[0], p[1], p[2]
	default: // 1 bpp: set bit = white, clear bit = black
		bit := b.pix[base+x/8] >> (7 - uint(x%8)) & 1
		if bit == 1 {
			return 255, 255, 255
		}
		return 0, 0, 0
	}
}
