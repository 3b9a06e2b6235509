package pandoc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

const (
	// DefaultEncoding is the encoding assumed for byte input.
	DefaultEncoding = "utf-8"
	// AutoEncoding requests charset detection for byte input.
	AutoEncoding = "auto"
)

var encodings = map[string]encoding.Encoding{
	"utf8":        unicode.UTF8,
	"utf8bom":     unicode.UTF8BOM,
	"ascii":       unicode.UTF8,
	"usascii":     unicode.UTF8,
	"utf16":       unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf16le":     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf16be":     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"latin1":      charmap.ISO8859_1,
	"iso88591":    charmap.ISO8859_1,
	"iso88592":    charmap.ISO8859_2,
	"iso88595":    charmap.ISO8859_5,
	"iso88597":    charmap.ISO8859_7,
	"iso88599":    charmap.ISO8859_9,
	"iso885915":   charmap.ISO8859_15,
	"cp1250":      charmap.Windows1250,
	"cp1251":      charmap.Windows1251,
	"cp1252":      charmap.Windows1252,
	"windows1250": charmap.Windows1250,
	"windows1251": charmap.Windows1251,
	"windows1252": charmap.Windows1252,
	"koi8r":       charmap.KOI8R,
	"shiftjis":    japanese.ShiftJIS,
	"sjis":        japanese.ShiftJIS,
	"cp932":       japanese.ShiftJIS,
	"eucjp":       japanese.EUCJP,
	"iso2022jp":   japanese.ISO2022JP,
	"euckr":       korean.EUCKR,
	"cp949":       korean.EUCKR,
	"gbk":         simplifiedchinese.GBK,
	"gb2312":      simplifiedchinese.GBK,
	"gb18030":     simplifiedchinese.GB18030,
	"big5":        traditionalchinese.Big5,
}

// lookupEncoding maps a charset name such as "ISO-8859-15" or "utf_16" to an
// encoding. It returns nil for unknown names.
func lookupEncoding(charset string) encoding.Encoding {
	key := strings.ToLower(charset)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	return encodings[key]
}

// DecodeSource turns raw input bytes into text using charset. The default
// charset passes bytes through unchanged, so input that is already UTF-8, or
// not text at all, reaches pandoc as given. AutoEncoding detects the charset.
func DecodeSource(data []byte, charset string) (string, error) {
	switch strings.ToLower(charset) {
	case "", DefaultEncoding, "utf8":
		return string(data), nil
	case AutoEncoding:
		return decodeWithDetection(data), nil
	}

	enc := lookupEncoding(charset)
	if enc == nil {
		return "", fmt.Errorf("unknown encoding %q", charset)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// already decoded or mislabelled input is sent as is
		return string(data), nil
	}
	return string(decoded), nil
}

// decodeWithDetection guesses the charset of data. Valid UTF-8 always wins.
func decodeWithDetection(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	results, err := chardet.NewTextDetector().DetectAll(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	for _, r := range results {
		enc := lookupEncoding(r.Charset)
		if enc == nil {
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}
	return strings.ToValidUTF8(string(data), "�")
}
