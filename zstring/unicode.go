package zstring

// DefaultUnicodeTranslationTable maps the Unicode characters ZSCII codes
// 155-223 stand for, per the Z-machine Standard's default table. Stories
// may declare a custom table via the header extension table; spec.md's
// Non-goals exclude supporting that beyond this default.
var DefaultUnicodeTranslationTable = map[rune]uint8{
	'ä': 155, 'ö': 156, 'ü': 157, 'Ä': 158, 'Ö': 159, 'Ü': 160, 'ß': 161,
	'»': 162, '«': 163, 'ë': 164, 'ï': 165, 'ÿ': 166, 'Ë': 167, 'Ï': 168,
	'á': 169, 'é': 170, 'í': 171, 'ó': 172, 'ú': 173, 'ý': 174, 'Á': 175,
	'É': 176, 'Í': 177, 'Ó': 178, 'Ú': 179, 'Ý': 180, 'à': 181, 'è': 182,
	'ì': 183, 'ò': 184, 'ù': 185, 'À': 186, 'È': 187, 'Ì': 188, 'Ò': 189,
	'Ù': 190, 'â': 191, 'ê': 192, 'î': 193, 'ô': 194, 'û': 195, 'Â': 196,
	'Ê': 197, 'Î': 198, 'Ô': 199, 'Û': 200, 'å': 201, 'Å': 202, 'ø': 203,
	'Ø': 204, 'ã': 205, 'ñ': 206, 'õ': 207, 'Ã': 208, 'Ñ': 209, 'Õ': 210,
	'æ': 211, 'Æ': 212, 'ç': 213, 'Ç': 214, 'þ': 215, 'ð': 216, 'Þ': 217,
	'Ð': 218, '£': 219, 'œ': 220, 'Œ': 221, '¡': 222, '¿': 223,
}

// UnicodeToZscii looks up the 10-bit ZSCII escape code for a Unicode
// character outside the printable ASCII range.
func UnicodeToZscii(r rune) (uint8, bool) {
	zchr, ok := DefaultUnicodeTranslationTable[r]
	return zchr, ok
}

// ZsciiToUnicode is the inverse of UnicodeToZscii.
func ZsciiToUnicode(zchr uint8) (rune, bool) {
	for r, code := range DefaultUnicodeTranslationTable {
		if code == zchr {
			return r, true
		}
	}
	return 0, false
}
