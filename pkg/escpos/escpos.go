// Package escpos builds ESC/POS byte streams for thermal receipt printers.
// It speaks a single fixed command dialect; all text is translated into the
// printer's one-byte code page via Encode.
package escpos

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ESC/POS command constants
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Font selection (ESC M)
const (
	FontA = 0 // normal
	FontB = 1 // condensed
)

// codePage1252 is the ESC t argument for Windows-1252 on Epson-compatible devices.
const codePage1252 = 16

// Document builds an ESC/POS byte stream. Once composed it is only read,
// never mutated; Bytes returns the accumulated stream.
type Document struct {
	buf   bytes.Buffer
	width int // print width in characters (48 for 80mm font A, 42 tuned for this dialect)
}

// NewDocument creates an initialized ESC/POS document with the given
// character width and selects the printer's code page.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = 42
	}
	d := &Document{width: charWidth}
	d.Init()
	d.SetCodePage()
	return d
}

// Width returns the configured line width in characters.
func (d *Document) Width() int {
	return d.width
}

// Init sends the ESC @ (initialize printer) command.
func (d *Document) Init() *Document {
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// SetCodePage selects the fixed single-byte code page (ESC t).
func (d *Document) SetCodePage() *Document {
	d.buf.Write([]byte{ESC, 't', codePage1252})
	return d
}

// LineFeed sends a line feed.
func (d *Document) LineFeed() *Document {
	d.buf.WriteByte(LF)
	return d
}

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

// SetAlign sets text alignment: AlignLeft, AlignCenter, AlignRight.
func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

// SetBold enables or disables bold text.
func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// SetUnderline enables or disables underlined text.
func (d *Document) SetUnderline(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, '-', b})
	return d
}

// SetSize sets the character size multipliers (GS !). Width and height are
// clamped to 1-8; (1,1) restores the normal size.
func (d *Document) SetSize(width, height int) *Document {
	w := clampSize(width)
	h := clampSize(height)
	d.buf.Write([]byte{GS, '!', byte((w-1)<<4 | (h - 1))})
	return d
}

func clampSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// SetFont selects the character font: FontA (normal) or FontB (condensed).
func (d *Document) SetFont(font int) *Document {
	d.buf.Write([]byte{ESC, 'M', byte(font)})
	return d
}

// SetLineSpacing sets the line spacing to n motion units (ESC 3).
func (d *Document) SetLineSpacing(n byte) *Document {
	d.buf.Write([]byte{ESC, '3', n})
	return d
}

// ResetLineSpacing restores the default line spacing (ESC 2).
func (d *Document) ResetLineSpacing() *Document {
	d.buf.Write([]byte{ESC, '2'})
	return d
}

// Text writes a line of text followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.Write(Encode(s))
	d.buf.WriteByte(LF)
	return d
}

// TextF writes a formatted line of text followed by a line feed.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width separator line.
func (d *Document) Separator(char byte) *Document {
	d.buf.WriteString(strings.Repeat(string(char), d.width))
	d.buf.WriteByte(LF)
	return d
}

// KeyValue prints a left-aligned key and a right-aligned value on one line.
// The value's last character lands exactly at the configured width. When
// key+value overflow the width, a single separating space is inserted and
// the line overflows as-is; nothing is truncated.
func (d *Document) KeyValue(key, value string) *Document {
	spaces := d.width - utf8.RuneCountInString(key) - utf8.RuneCountInString(value)
	if spaces < 1 {
		spaces = 1
	}
	d.buf.Write(Encode(key))
	d.buf.WriteString(strings.Repeat(" ", spaces))
	d.buf.Write(Encode(value))
	d.buf.WriteByte(LF)
	return d
}

// ItemLine prints a receipt item line: qty x name, then right-aligned total.
// Example: "2x Cola                    4.00"
func (d *Document) ItemLine(qty int, name, total string) *Document {
	return d.KeyValue(fmt.Sprintf("%dx %s", qty, name), total)
}

// Barcode prints a Code 128 barcode with the human-readable text below it.
// moduleWidth is clamped to 1-3 dots, height to 40-255 dots.
func (d *Document) Barcode(data string, height, moduleWidth int) *Document {
	if height < 40 {
		height = 40
	}
	if height > 255 {
		height = 255
	}
	if moduleWidth < 1 {
		moduleWidth = 1
	}
	if moduleWidth > 3 {
		moduleWidth = 3
	}

	d.buf.Write([]byte{GS, 'h', byte(height)})      // bar height
	d.buf.Write([]byte{GS, 'w', byte(moduleWidth)}) // module width
	d.buf.Write([]byte{GS, 'H', 2})                 // HRI below the bars
	d.buf.Write([]byte{GS, 'f', 0})                 // HRI font A

	// Code 128 (m=73) takes a length-prefixed payload; the {B prefix selects
	// code set B for full alphanumeric order identifiers.
	payload := append([]byte{'{', 'B'}, Encode(data)...)
	d.buf.Write([]byte{GS, 'k', 73, byte(len(payload))})
	d.buf.Write(payload)
	d.buf.WriteByte(LF)
	return d
}

// Raster emits a raster image block (GS v 0). rowBytes and height are encoded
// as little-endian 16-bit values; data must hold rowBytes*height bytes packed
// 8 pixels per byte, MSB first.
func (d *Document) Raster(rowBytes, height int, data []byte) *Document {
	d.buf.Write([]byte{
		GS, 'v', '0', 0,
		byte(rowBytes), byte(rowBytes >> 8),
		byte(height), byte(height >> 8),
	})
	d.buf.Write(data)
	return d
}

// Cut sends the paper cut command (full cut).
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x00})
	return d
}

// PartialCut sends the partial cut command.
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated ESC/POS byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// Reset clears the buffer and reinitializes the document.
func (d *Document) Reset() *Document {
	d.buf.Reset()
	d.Init()
	d.SetCodePage()
	return d
}
