package utils

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

var optimaSourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)
	// compatible solution to get optima source directory with various operating systems
	optimaSourceDir = sourceDir(file)
}

func sourceDir(file string) string {
	dir := filepath.Dir(file)
	dir = filepath.Dir(dir)
	return filepath.ToSlash(dir) + "/"
}

// FileWithLineNum return the file name and line number of the current file
func FileWithLineNum() string {
	// the second caller usually from optima internal, so set i start from 2
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if ok && (!strings.HasPrefix(file, optimaSourceDir) || strings.HasSuffix(file, "_test.go")) {
			return file + ":" + strconv.FormatInt(int64(line), 10)
		}
	}

	return ""
}

// QuoteIdent quotes a table or column identifier with double quotes,
// doubling any embedded quote.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// EscapeString escapes a string for inclusion in a single-quoted SQL
// literal by doubling single quotes.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, `'`, `''`)
}

// QuoteString returns s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + EscapeString(s) + "'"
}
