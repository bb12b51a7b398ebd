package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want uint64
	}{
		{"empty string", "", 0x2f},
		{"root slash", "/", 0x2f},
		{"single char", "a", 0x18cc},
		{"rooted single char", "/a", 0x18cc},
		{"uppercase folds", "/A", 0x18cc},
		{"backslash folds", "\\a", 0x18cc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Name(tt.path))
		})
	}
}

func TestName_Canonicalization(t *testing.T) {
	paths := []string{
		"map/m60/m60_44_58_00.mapbnd.dcx",
		"menu/somefile.tpf.dcx",
		"sound/fdlse_main.fsb",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			rooted := Name("/" + p)
			require.Equal(t, rooted, Name(p), "leading slash must not change the hash")

			upper := ""
			for _, ch := range p {
				if ch >= 'a' && ch <= 'z' {
					ch -= 'a' - 'A'
				}
				upper += string(ch)
			}
			require.Equal(t, rooted, Name(upper), "case must not change the hash")

			backslashed := ""
			for _, ch := range p {
				if ch == '/' {
					ch = '\\'
				}
				backslashed += string(ch)
			}
			require.Equal(t, rooted, Name(backslashed), "separator style must not change the hash")
		})
	}
}

func TestName_OrderDependence(t *testing.T) {
	require.NotEqual(t, Name("/ab"), Name("/ba"))
}

func BenchmarkName(b *testing.B) {
	const path = "/map/m60/m60_44_58_00/m60_44_58_00_445800.mapbnd.dcx"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Name(path)
	}
}
