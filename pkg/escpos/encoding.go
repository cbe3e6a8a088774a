package escpos

// The printer runs a fixed single-byte code page (Windows-1252, selected with
// ESC t 16). Every rune must collapse to exactly one byte before transmission.
//
// Runes <= 0xFF pass through unchanged. The cp1252 table below maps the
// "smart" punctuation and currency characters that live in the 0x80-0x9F
// range of Windows-1252 but have different Unicode code points. Everything
// else degrades to '?', so encoding never fails on arbitrary input.
var cp1252 = map[rune]byte{
	'€': 0x80,
	'‚': 0x82,
	'ƒ': 0x83,
	'„': 0x84,
	'…': 0x85,
	'†': 0x86,
	'‡': 0x87,
	'ˆ': 0x88,
	'‰': 0x89,
	'Š': 0x8A,
	'‹': 0x8B,
	'Œ': 0x8C,
	'Ž': 0x8E,
	'‘': 0x91,
	'’': 0x92,
	'“': 0x93,
	'”': 0x94,
	'•': 0x95,
	'–': 0x96,
	'—': 0x97,
	'˜': 0x98,
	'™': 0x99,
	'š': 0x9A,
	'›': 0x9B,
	'œ': 0x9C,
	'ž': 0x9E,
	'Ÿ': 0x9F,
}

const placeholder = '?'

// Encode translates a string into the printer's single-byte code page.
// One byte per rune, always; unmappable runes become '?'.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r <= 0xFF:
			out = append(out, byte(r))
		default:
			if b, ok := cp1252[r]; ok {
				out = append(out, b)
			} else {
				out = append(out, placeholder)
			}
		}
	}
	return out
}
