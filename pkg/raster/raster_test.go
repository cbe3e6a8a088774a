package raster

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- BMP builders (bottom-up row order, like real-world files) ---

func bmpHeader(buf []byte, dataOffset, width, height, bpp int) {
	buf[0] = 'B'
	buf[1] = 'M'
	binary.LittleEndian.PutUint32(buf[2:], uint32(len(buf)))
	binary.LittleEndian.PutUint32(buf[10:], uint32(dataOffset))
	binary.LittleEndian.PutUint32(buf[14:], 40) // BITMAPINFOHEADER
	binary.LittleEndian.PutUint32(buf[18:], uint32(width))
	binary.LittleEndian.PutUint32(buf[22:], uint32(height))
	binary.LittleEndian.PutUint16(buf[26:], 1)
	binary.LittleEndian.PutUint16(buf[28:], uint16(bpp))
	binary.LittleEndian.PutUint32(buf[30:], 0) // BI_RGB
}

// bmp24 builds a 24bpp BMP; pix is called with top-left origin coordinates
// and returns R,G,B.
func bmp24(w, h int, pix func(x, y int) [3]byte) []byte {
	stride := ((w*24 + 31) / 32) * 4
	buf := make([]byte, 54+stride*h)
	bmpHeader(buf, 54, w, h, 24)
	for sy := 0; sy < h; sy++ {
		y := h - 1 - sy
		for x := 0; x < w; x++ {
			c := pix(x, y)
			o := 54 + sy*stride + x*3
			buf[o] = c[2] // stored B,G,R
			buf[o+1] = c[1]
			buf[o+2] = c[0]
		}
	}
	return buf
}

// bmp8 builds an 8bpp BMP with a 256-entry grayscale palette.
func bmp8(w, h int, pix func(x, y int) byte) []byte {
	stride := ((w*8 + 31) / 32) * 4
	dataOffset := 54 + 256*4
	buf := make([]byte, dataOffset+stride*h)
	bmpHeader(buf, dataOffset, w, h, 8)
	for i := 0; i < 256; i++ {
		o := 54 + i*4
		buf[o] = byte(i) // B,G,R,reserved
		buf[o+1] = byte(i)
		buf[o+2] = byte(i)
	}
	for sy := 0; sy < h; sy++ {
		y := h - 1 - sy
		for x := 0; x < w; x++ {
			buf[dataOffset+sy*stride+x] = pix(x, y)
		}
	}
	return buf
}

// bmp1 builds a 1bpp BMP with the conventional black/white palette; pix
// returns true for white.
func bmp1(w, h int, pix func(x, y int) bool) []byte {
	stride := ((w + 31) / 32) * 4
	dataOffset := 54 + 2*4
	buf := make([]byte, dataOffset+stride*h)
	bmpHeader(buf, dataOffset, w, h, 1)
	// palette: index 0 black, index 1 white
	for i := 0; i < 3; i++ {
		buf[54+4+i] = 0xFF
	}
	for sy := 0; sy < h; sy++ {
		y := h - 1 - sy
		for x := 0; x < w; x++ {
			if pix(x, y) {
				buf[dataOffset+sy*stride+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}
	return buf
}

// flatOptions disables everything data-dependent so solid fields stay solid:
// Threshold 0 turns off auto-invert, no dithering, no crop.
func flatOptions() Options {
	return Options{
		MaxWidth:   320,
		Threshold:  0,
		Brightness: 1.0,
		Gamma:      1.0,
	}
}

func bit(img *Image, x, y int) bool {
	return img.Data[y*img.RowBytes+x/8]&(0x80>>uint(x%8)) != 0
}

func TestSolidBlackAllDepths(t *testing.T) {
	black24 := bmp24(16, 16, func(x, y int) [3]byte { return [3]byte{0, 0, 0} })
	black8 := bmp8(16, 16, func(x, y int) byte { return 0 })
	black1 := bmp1(16, 16, func(x, y int) bool { return false })

	for name, data := range map[string][]byte{"24bpp": black24, "8bpp": black8, "1bpp": black1} {
		img, err := FromBMP(data, flatOptions())
		require.NoError(t, err, name)
		require.Equal(t, 16, img.Width, name)
		require.Equal(t, 16, img.Height, name)
		require.Equal(t, 2, img.RowBytes, name)
		for i, b := range img.Data {
			require.Equal(t, byte(0xFF), b, "%s byte %d", name, i)
		}
	}
}

func TestSolidWhiteAllDepths(t *testing.T) {
	white24 := bmp24(16, 16, func(x, y int) [3]byte { return [3]byte{255, 255, 255} })
	white8 := bmp8(16, 16, func(x, y int) byte { return 255 })
	white1 := bmp1(16, 16, func(x, y int) bool { return true })

	opts := flatOptions()
	opts.Threshold = 110 // average luma 255 stays above it, no inversion

	for name, data := range map[string][]byte{"24bpp": white24, "8bpp": white8, "1bpp": white1} {
		img, err := FromBMP(data, opts)
		require.NoError(t, err, name)
		for i, b := range img.Data {
			require.Equal(t, byte(0x00), b, "%s byte %d", name, i)
		}
	}
}

func TestAutoInvertDarkBackground(t *testing.T) {
	// White 20x20 letter block on black background: average luma ~10/255,
	// well under the threshold, so the field must be inverted before
	// binarization and only the letters end up inked.
	letter := func(x, y int) bool { return x >= 40 && x < 60 && y >= 40 && y < 60 }
	data := bmp24(100, 100, func(x, y int) [3]byte {
		if letter(x, y) {
			return [3]byte{255, 255, 255}
		}
		return [3]byte{0, 0, 0}
	})

	opts := flatOptions()
	opts.Threshold = 110

	img, err := FromBMP(data, opts)
	require.NoError(t, err)
	require.True(t, bit(img, 45, 45), "letter must be inked after inversion")
	require.False(t, bit(img, 5, 5), "background must be blank after inversion")

	var ink int
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if bit(img, x, y) {
				ink++
			}
		}
	}
	require.Equal(t, 400, ink)
}

func TestNoInvertOnLightBackground(t *testing.T) {
	// Dark letters on a light (230/255) background: average stays above the
	// threshold, no inversion happens.
	letter := func(x, y int) bool { return x >= 40 && x < 60 && y >= 40 && y < 60 }
	data := bmp24(100, 100, func(x, y int) [3]byte {
		if letter(x, y) {
			return [3]byte{0, 0, 0}
		}
		return [3]byte{230, 230, 230}
	})

	opts := flatOptions()
	opts.Threshold = 110

	img, err := FromBMP(data, opts)
	require.NoError(t, err)
	require.True(t, bit(img, 45, 45))
	require.False(t, bit(img, 5, 5))
}

func TestDitherIsDeterministic(t *testing.T) {
	data := bmp24(64, 64, func(x, y int) [3]byte {
		v := byte((x*4 + y) % 256)
		return [3]byte{v, v, v}
	})

	opts := flatOptions()
	opts.Dither = true

	first, err := FromBMP(data, opts)
	require.NoError(t, err)
	second, err := FromBMP(data, opts)
	require.NoError(t, err)
	require.Equal(t, first.Data, second.Data)
}

func TestDownscaleCapsWidth(t *testing.T) {
	data := bmp24(700, 100, func(x, y int) [3]byte { return [3]byte{255, 255, 255} })

	opts := flatOptions()
	opts.Threshold = 110
	opts.MaxWidth = 320

	img, err := FromBMP(data, opts)
	require.NoError(t, err)
	require.LessOrEqual(t, img.Width, 320)
	require.Equal(t, 700/3, img.Width) // decimation factor 3
}

func TestAutoCropBoundsContent(t *testing.T) {
	blob := func(x, y int) bool { return x >= 24 && x < 32 && y >= 24 && y < 32 }
	data := bmp24(64, 64, func(x, y int) [3]byte {
		if blob(x, y) {
			return [3]byte{0, 0, 0}
		}
		return [3]byte{255, 255, 255}
	})

	opts := flatOptions()
	opts.Threshold = 110
	opts.AutoCrop = true
	opts.CropPadding = 4

	img, err := FromBMP(data, opts)
	require.NoError(t, err)
	require.Equal(t, 16, img.Width) // 8 content + 4 padding each side
	require.Equal(t, 16, img.Height)
}

func TestRejectsUnsupportedInput(t *testing.T) {
	t.Run("bad signature", func(t *testing.T) {
		data := bmp24(8, 8, func(x, y int) [3]byte { return [3]byte{} })
		data[0] = 'X'
		_, err := FromBMP(data, flatOptions())
		require.Error(t, err)
	})

	t.Run("unsupported depth", func(t *testing.T) {
		data := bmp24(8, 8, func(x, y int) [3]byte { return [3]byte{} })
		binary.LittleEndian.PutUint16(data[28:], 16)
		_, err := FromBMP(data, flatOptions())
		require.Error(t, err)
	})

	t.Run("compressed", func(t *testing.T) {
		data := bmp24(8, 8, func(x, y int) [3]byte { return [3]byte{} })
		binary.LittleEndian.PutUint32(data[30:], 1) // BI_RLE8
		_, err := FromBMP(data, flatOptions())
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		data := bmp24(8, 8, func(x, y int) [3]byte { return [3]byte{} })
		_, err := FromBMP(data[:40], flatOptions())
		require.Error(t, err)
	})
}
