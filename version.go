package pandoc

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a dotted pandoc version such as 3.1.11.1.
type Version []int

var reVersionToken = regexp.MustCompile(`^\d+(\.\d+)+$`)

// ParseVersion parses "2.19.2" into a Version.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		v = append(v, n)
	}
	return v, nil
}

// Compare returns -1, 0 or +1. The shorter version is padded with zeros,
// so 2.19 equals 2.19.0.
func (v Version) Compare(o Version) int {
	n := max(len(v), len(o))
	for i := range n {
		a, b := v.at(i), o.at(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func (v Version) at(i int) int {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// AtLeast reports whether v >= major.minor.
func (v Version) AtLeast(major, minor int) bool {
	return v.Compare(Version{major, minor}) >= 0
}

// AtMost reports whether v <= major.minor, ignoring components after minor.
func (v Version) AtMost(major, minor int) bool {
	return Version{v.at(0), v.at(1)}.Compare(Version{major, minor}) <= 0
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// parseVersionOutput extracts the version from `pandoc --version` output.
// The first line looks like "pandoc 3.1.11.1" or "pandoc.exe 2.19.2".
func parseVersionOutput(out string) (string, error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	if !sc.Scan() {
		return "", fmt.Errorf("empty version output")
	}
	for _, tok := range strings.Fields(sc.Text()) {
		if reVersionToken.MatchString(tok) {
			return tok, nil
		}
	}
	return "", fmt.Errorf("no version in %q", sc.Text())
}
