package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPlaceName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"Delhi123, IN", "Delhi", true},
		{"  new delhi (ncr)  ", "New Delhi", true},
		{"Mumbai", "Mumbai", true},
		{"anand vihar,  , delhi", "Anand Vihar, Delhi", true},
		{"Bengaluru ,India", "Bengaluru", true},
		{"Pune India", "Pune", true},
		{"Sector 62, Noida", "Noida", true},
		{"PUNE   CITY", "Pune City", true},
		{"12345", "", false},
		{"X", "", false},
		{"   ", "", false},
		{"(delhi)", "", false},
		{"IN", "", false},
		{"A1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := CleanPlaceName(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStationCode(t *testing.T) {
	assert.Equal(t, "Anand_Vihar", StationCode("Anand Vihar"))
	assert.Equal(t, "Delhi_28.65_77.3", StationCode("Delhi", "28.65", "77.3"))

	long := StationCode(strings.Repeat("abcdefghij", 8))
	assert.Len(t, long, StationCodeLen)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := "ab€" // € is 3 bytes
	assert.Equal(t, "ab", Truncate(s, 4))
	assert.Equal(t, s, Truncate(s, 5))
}
