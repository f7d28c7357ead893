package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Users"`, QuoteIdent("Users"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, `'hello'`, QuoteString("hello"))
	assert.Equal(t, `'it''s'`, QuoteString("it's"))
}

func traceCaller() string {
	return FileWithLineNum()
}

func TestFileWithLineNum(t *testing.T) {
	if line := traceCaller(); !strings.HasSuffix(line, "utils_test.go:25") {
		t.Errorf("invalid file line num %v", line)
	}
}
