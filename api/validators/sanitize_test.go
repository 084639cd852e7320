package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "Asha Rao", SanitizeString("  Asha Rao \n", MaxFieldLen))
	require.Equal(t, "abc", SanitizeString("abcdef", 3))
	require.Equal(t, "abc", SanitizeString("abc", 0))

	long := strings.Repeat("x", MaxFieldLen+10)
	require.Len(t, SanitizeString(long, MaxFieldLen), MaxFieldLen)
}

func TestSanitizeStringKeepsRunesIntact(t *testing.T) {
	require.Equal(t, "अनु", SanitizeString("अनुपमा", 3))
	require.Equal(t, "日本", SanitizeString(" 日本語 ", 2))
}
