package pandoc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var reCRLF = regexp.MustCompile(`\r\n?`)

// normalizeStderr makes pandoc's diagnostic stream safe to classify:
// invalid UTF-8 is replaced and Windows line endings become \n. Unlike
// stdout, stderr is never fatal to decode.
func normalizeStderr(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return reCRLF.ReplaceAllString(s, "\n")
}
