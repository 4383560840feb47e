package ocr

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect_Image(t *testing.T) {
	path := writeFile(t, "card.PNG", []byte("not really a png"))

	info, err := Inspect(path, 0)
	require.NoError(t, err)

	assert.Equal(t, "card.PNG", info.Name)
	assert.Equal(t, ".png", info.Ext)
	assert.Equal(t, "image/png", info.MIMEType)
	assert.Equal(t, int64(16), info.Size)
	assert.Equal(t, 1, info.PageCount)
	assert.Equal(t, 1, info.Orientation)
	assert.False(t, info.IsPDF())
}

func TestInspect_JPEGWithoutEXIFDefaultsOrientation(t *testing.T) {
	path := writeFile(t, "scan.jpg", []byte{0xFF, 0xD8, 0xFF, 0xD9})

	info, err := Inspect(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Orientation)
}

func TestInspect_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		maxBytes int64
		wantErr  error
	}{
		{"missing file", filepath.Join(dir, "missing.png"), 0, ErrFileNotFound},
		{"directory", dir, 0, ErrUnsupportedFormat},
		{"unsupported extension", writeFile(t, "notes.txt", []byte("hello")), 0, ErrUnsupportedFormat},
		{"too large", writeFile(t, "big.png", make([]byte, 64)), 32, ErrFileTooLarge},
		{"broken pdf", writeFile(t, "broken.pdf", []byte("%PDF-1.4 garbage")), 0, ErrInvalidPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inspect(tt.path, tt.maxBytes)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIsSupportedExtension(t *testing.T) {
	for _, ext := range SupportedExtensions() {
		assert.True(t, IsSupportedExtension(ext), ext)
	}
	assert.True(t, IsSupportedExtension(".JPG"))
	assert.False(t, IsSupportedExtension(".gif"))
	assert.False(t, IsSupportedExtension(""))
}

func TestReadFile(t *testing.T) {
	_, _, err := readFile("op", writeFile(t, "fake.pdf", []byte("hello")))
	assert.ErrorIs(t, err, ErrInvalidPDF)

	data, mime, err := readFile("op", writeFile(t, "ok.tif", []byte("II*")))
	require.NoError(t, err)
	assert.Equal(t, "image/tiff", mime)
	assert.Equal(t, []byte("II*"), data)
}
