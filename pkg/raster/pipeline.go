// Package raster converts logo bitmaps into the packed 1-bit rasters a
// thermal printer consumes. The pipeline is fully deterministic: the same
// input bytes and Options always produce byte-identical output.
package raster

import "math"

// binarizeMidpoint is the fixed Floyd-Steinberg quantization midpoint.
// Options.Threshold governs auto-invert and crop detection, not binarization.
const binarizeMidpoint = 128

// avgSampleTarget is the approximate number of points sampled for the
// global average luma used by dark-background detection.
const avgSampleTarget = 20000

// cropMargin is subtracted from Threshold when searching for inked pixels
// during auto-crop.
const cropMargin = 20

// Options holds every tuning knob of the image pipeline.
type Options struct {
	MaxWidth    int     // output width cap in dots; input is decimated to fit
	Threshold   int     // 0-255; auto-invert below this average luma, crop detection at Threshold-cropMargin
	Brightness  float64 // luma multiplier, 1.0 = neutral
	Gamma       float64 // inverse-gamma exponent applied per channel
	Dither      bool    // Floyd-Steinberg when true, hard threshold otherwise
	BlackBoost  float64 // ink bias: 255*BlackBoost subtracted from every luma
	AutoCrop    bool
	CropPadding int // dots added around the detected content box
}

// DefaultOptions are tuned for a 72mm printable width at 203 dpi.
func DefaultOptions() Options {
	return Options{
		MaxWidth:    320,
		Threshold:   110,
		Brightness:  1.0,
		Gamma:       1.0,
		Dither:      true,
		BlackBoost:  0.0,
		AutoCrop:    true,
		CropPadding: 8,
	}
}

// Image is a packed 1-bit raster, origin top-left, 8 pixels per byte with the
// most significant bit first. len(Data) == RowBytes*Height.
type Image struct {
	Width    int
	Height   int
	RowBytes int
	Data     []byte
}

// FromBMP decodes an uncompressed 1/8/24 bpp BMP and runs the full pipeline:
// decimation, gamma/brightness correction, global auto-invert, ink bias,
// auto-crop and error-diffusion binarization.
func FromBMP(data []byte, o Options) (*Image, error) {
	bmp, err := decodeBMP(data)
	if err != nil {
		return nil, err
	}

	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultOptions().MaxWidth
	}
	if o.Gamma <= 0 {
		o.Gamma = 1.0
	}
	if o.Brightness <= 0 {
		o.Brightness = 1.0
	}

	// Integer decimation keeps the logo inside the paper's dot width without
	// a resampling filter.
	factor := 1
	for bmp.width/factor > o.MaxWidth {
		factor++
	}
	outW := bmp.width / factor
	outH := bmp.height / factor
	if outW < 1 || outH < 1 {
		outW, outH, factor = bmp.width, bmp.height, 1
	}

	luma := make([]float64, outW*outH)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			r, g, b := bmp.at(x*factor, y*factor)
			luma[y*outW+x] = lumaOf(r, g, b, o)
		}
	}

	// Dark-background logos (white ink on black) would otherwise print as a
	// solid block; detect them from a sparse global average and invert.
	if averageLuma(bmp, o) < float64(o.Threshold) {
		for i := range luma {
			luma[i] = 255 - luma[i]
		}
	}

	// Ink bias compensates thermal-print fade by darkening everything.
	if bias := 255 * o.BlackBoost; bias > 0 {
		for i := range luma {
			v := luma[i] - bias
			if v < 0 {
				v = 0
			}
			luma[i] = v
		}
	}

	x0, y0, x1, y1 := 0, 0, outW, outH
	if o.AutoCrop {
		x0, y0, x1, y1 = contentBox(luma, outW, outH, float64(o.Threshold-cropMargin), o.CropPadding)
	}

	return binarize(luma, outW, x0, y0, x1, y1, o.Dither), nil
}

// lumaOf converts one pixel to a corrected luma value in [0,255].
func lumaOf(r, g, b byte, o Options) float64 {
	rn := math.Pow(float64(r)/255, 1/o.Gamma)
	gn := math.Pow(float64(g)/255, 1/o.Gamma)
	bn := math.Pow(float64(b)/255, 1/o.Gamma)
	l := (0.2126*rn + 0.7152*gn + 0.0722*bn) * 255 * o.Brightness
	if l < 0 {
		return 0
	}
	if l > 255 {
		return 255
	}
	return l
}

// averageLuma samples roughly avgSampleTarget points spread over the full
// source image.
func averageLuma(bmp *bitmap, o Options) float64 {
	total := bmp.width * bmp.height
	step := total / avgSampleTarget
	if step < 1 {
		step = 1
	}
	var sum float64
	var n int
	for i := 0; i < total; i += step {
		r, g, b := bmp.at(i%bmp.width, i/bmp.width)
		sum += lumaOf(r, g, b, o)
		n++
	}
	return sum / float64(n)
}

// contentBox finds the padded bounding box of all pixels darker than limit.
// The full field is returned when no pixel qualifies.
func contentBox(luma []float64, w, h int, limit float64, pad int) (x0, y0, x1, y1 int) {
	x0, y0, x1, y1 = w, h, 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if luma[y*w+x] < limit {
				if x < x0 {
					x0 = x
				}
				if y < y0 {
					y0 = y
				}
				if x >= x1 {
					x1 = x + 1
				}
				if y >= y1 {
					y1 = y + 1
				}
			}
		}
	}
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, w, h
	}
	x0 -= pad
	y0 -= pad
	x1 += pad
	y1 += pad
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > w {
		x1 = w
	}
	if y1 > h {
		y1 = h
	}
	return x0, y0, x1, y1
}

// binarize converts the cropped luma field to a packed 1-bit raster, using
// Floyd-Steinberg error diffusion in raster order when dither is set.
func binarize(luma []float64, w, x0, y0, x1, y1 int, dither bool) *Image {
	cw := x1 - x0
	ch := y1 - y0
	rowBytes := (cw + 7) / 8
	out := &Image{
		Width:    cw,
		Height:   ch,
		RowBytes: rowBytes,
		Data:     make([]byte, rowBytes*ch),
	}

	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			idx := (y0+y)*w + (x0 + x)
			old := luma[idx]
			var quantized float64
			black := old < binarizeMidpoint
			if !black {
				quantized = 255
			}
			if black {
				out.Data[y*rowBytes+x/8] |= 0x80 >> uint(x%8)
			}
			if !dither {
				continue
			}
			// Propagate the quantization error right, below-left, below and
			// below-right (7/16, 3/16, 5/16, 1/16), clipped at the field edges.
			diff := old - quantized
			if x+1 < cw {
				luma[idx+1] += diff * 7 / 16
			}
			if y+1 < ch {
				if x > 0 {
					luma[idx+w-1] += diff * 3 / 16
				}
				luma[idx+w] += diff * 5 / 16
				if x+1 < cw {
					luma[idx+w+1] += diff * 1 / 16
				}
			}
		}
	}
	return out
}
