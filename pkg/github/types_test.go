package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFile_Decode(t *testing.T) {
	tests := []struct {
		name        string
		file        RemoteFile
		expected    []byte
		expectError string
	}{
		{
			name:     "wrapped base64",
			file:     RemoteFile{Path: "a", Encoding: "base64", Content: "aGVs\nbG8=\n"},
			expected: []byte("hello"),
		},
		{
			name:     "windows line endings",
			file:     RemoteFile{Path: "a", Encoding: "base64", Content: "aGVs\r\nbG8=\r\n"},
			expected: []byte("hello"),
		},
		{
			name:     "empty file",
			file:     RemoteFile{Path: "a", Encoding: "base64", Content: ""},
			expected: []byte{},
		},
		{
			name:        "not inlined",
			file:        RemoteFile{Path: "big.bin", Encoding: "none", Size: 5 << 20},
			expectError: "not inlined",
		},
		{
			name:        "corrupt payload",
			file:        RemoteFile{Path: "a", Encoding: "base64", Content: "!!!"},
			expectError: "failed to decode",
		},
		{
			name:        "unknown encoding",
			file:        RemoteFile{Path: "a", Encoding: "utf-16"},
			expectError: "unsupported content encoding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.file.Decode()
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data)
		})
	}
}
