package pkg

import (
	"strconv"
	"strings"
	"unsafe"
)

// BytesToString converts bytes slice to a string without extra allocation
func BytesToString(buf []byte) string {
	return *(*string)(unsafe.Pointer(&buf))
}

// EscapeLike escapes the LIKE/ILIKE wildcards in s, so it is matched literally
// (backslash is the default escape character in postgres).
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// ParseID parses a positive database id. Values that do not fit
// a postgres INTEGER are rejected.
func ParseID(s string) (int, bool) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int(id), true
}
