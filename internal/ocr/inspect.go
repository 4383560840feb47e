package ocr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rwcarlsen/goexif/exif"
)

// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
const MaxFileSizeBytes = 20 * 1024 * 1024

// Default EXIF orientation (top-left, no rotation).
const orientationNormal = 1

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".pdf":  "application/pdf",
}

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// SupportedExtensions lists the accepted upload extensions.
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".pdf"}
}

// IsSupportedExtension reports whether ext (with leading dot, any case) is accepted.
func IsSupportedExtension(ext string) bool {
	_, ok := mimeTypes[strings.ToLower(ext)]
	return ok
}

// FileInfo describes an input file before any engine sees it.
type FileInfo struct {
	Path        string `json:"path" yaml:"path"`
	Name        string `json:"name" yaml:"name"`
	Ext         string `json:"ext" yaml:"ext"`
	MIMEType    string `json:"mime_type" yaml:"mime_type"`
	Size        int64  `json:"size" yaml:"size"`
	PageCount   int    `json:"page_count" yaml:"page_count"`
	Orientation int    `json:"orientation,omitempty" yaml:"orientation,omitempty"`
}

// IsPDF reports whether the file is a PDF.
func (f *FileInfo) IsPDF() bool {
	return f.MIMEType == "application/pdf"
}

// Inspect checks that path exists, has an accepted extension and fits in
// maxBytes (zero means MaxFileSizeBytes). PDFs are validated and counted;
// JPEG and TIFF images report their EXIF orientation.
func Inspect(path string, maxBytes int64) (*FileInfo, error) {
	const op = "Inspect"

	if maxBytes <= 0 {
		maxBytes = MaxFileSizeBytes
	}

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, WrapOCRError(op, ErrFileNotFound, path)
		}
		return nil, WrapOCRError(op, err, path)
	}
	if st.IsDir() {
		return nil, WrapOCRError(op, ErrUnsupportedFormat, "path is a directory")
	}

	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeTypes[ext]
	if !ok {
		return nil, WrapOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("extension %q", ext))
	}

	if st.Size() > maxBytes {
		return nil, WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", st.Size()))
	}

	info := &FileInfo{
		Path:        path,
		Name:        filepath.Base(path),
		Ext:         ext,
		MIMEType:    mime,
		Size:        st.Size(),
		PageCount:   1,
		Orientation: orientationNormal,
	}

	switch mime {
	case "application/pdf":
		if err := api.ValidateFile(path, nil); err != nil {
			return nil, WrapOCRError(op, ErrInvalidPDF, err.Error())
		}
		n, err := api.PageCountFile(path)
		if err != nil {
			return nil, WrapOCRError(op, ErrInvalidPDF, err.Error())
		}
		info.PageCount = n
	case "image/jpeg", "image/tiff":
		info.Orientation = readOrientation(path)
	}

	return info, nil
}

// readOrientation returns the EXIF orientation tag, or 1 when the image has
// no usable EXIF block.
func readOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return orientationNormal
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return orientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return orientationNormal
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return orientationNormal
	}
	return v
}

// readFile loads path for engines that send bytes over the wire.
func readFile(op, path string) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := mimeTypes[ext]
	if !ok {
		return nil, "", WrapOCRError(op, ErrUnsupportedFormat, fmt.Sprintf("extension %q", ext))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", WrapOCRError(op, ErrFileNotFound, path)
		}
		return nil, "", WrapOCRError(op, err, "failed to read file")
	}

	if len(data) > MaxFileSizeBytes {
		return nil, "", WrapOCRError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	if mime == "application/pdf" && (len(data) < 4 || string(data[:4]) != "%PDF") {
		return nil, "", WrapOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	return data, mime, nil
}
