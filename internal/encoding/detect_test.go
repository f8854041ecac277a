package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payadvice/internal/encoding"
)

func TestNewReader(t *testing.T) {
	type testCase struct {
		name        string
		input       []byte
		want        string
		wantCharset string
	}

	tests := []testCase{
		{
			name:        "UTF8Passthrough",
			input:       []byte("name,email,phone\nGaṇeśa Traders,g@x.com,9876543210\n"),
			want:        "name,email,phone\nGaṇeśa Traders,g@x.com,9876543210\n",
			wantCharset: encoding.UTF8,
		},
		{
			name:        "UTF8BOMStripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,email\n")...),
			want:        "name,email\n",
			wantCharset: encoding.UTF8,
		},
		{
			// "Café" in windows-1252, as saved by Excel.
			name:  "Windows1252",
			input: []byte{'n', 'a', 'm', 'e', '\n', 'C', 'a', 'f', 0xE9, '\n'},
			want:  "name\nCafé\n",
		},
		{
			name:        "UTF16LEWithBOM",
			input:       []byte{0xFF, 0xFE, 'n', 0, 'a', 0, 'm', 0, 'e', 0},
			want:        "name",
			wantCharset: encoding.UTF16LE,
		},
		{
			name:        "UTF16BEWithBOM",
			input:       []byte{0xFE, 0xFF, 0, 'n', 0, 'a', 0, 'm', 0, 'e'},
			want:        "name",
			wantCharset: encoding.UTF16BE,
		},
		{
			name:        "Empty",
			input:       nil,
			want:        "",
			wantCharset: encoding.UTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := encoding.NewReader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)

			assert.Equal(t, tt.want, string(got))

			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, r.Charset)
			}
		})
	}
}

func TestNewReader_MultibyteRuneAtSniffBoundary(t *testing.T) {
	// Place a 3-byte rune across the 4096 byte sniff window.
	input := strings.Repeat("a", 4095) + "₹" + "\n"

	r, err := encoding.NewReader(strings.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, encoding.UTF8, r.Charset)
	assert.Equal(t, input, string(got))
}
