package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// minTextLayerChars is the least text a PDF text layer must yield before it
// is trusted over real OCR. Scanned PDFs often carry a few stray glyphs.
const minTextLayerChars = 20

// PDFTextService implements OCRService by reading the embedded text layer of
// digital PDFs. Images and scanned PDFs are left to the next engine.
type PDFTextService struct {
	maxPages int
	log      zerolog.Logger
}

// NewPDFTextService returns a text layer reader that stops after 50 pages.
func NewPDFTextService() *PDFTextService {
	return &PDFTextService{
		maxPages: 50,
		log:      logger.WithComponent("ocr-pdftext"),
	}
}

// Name implements OCRService.
func (s *PDFTextService) Name() string {
	return "pdftext"
}

// ExtractText returns the PDF text layer page by page.
func (s *PDFTextService) ExtractText(ctx context.Context, path string, _ models.DocumentFamily) (*OCRResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, WrapOCRError(op, ErrUnsupportedFormat, "not a PDF")
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, WrapOCRError(op, ErrInvalidPDF, err.Error())
	}
	defer f.Close()

	pageCount := r.NumPage()
	if pageCount > s.maxPages {
		pageCount = s.maxPages
	}

	var buf strings.Builder
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapOCRError(op, err, "canceled while reading pages")
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			s.log.Debug().Err(err).Int("page", i).Msg("Skipping unreadable page")
			continue
		}
		if i > 1 && buf.Len() > 0 {
			fmt.Fprintf(&buf, "\n\n--- Page %d ---\n\n", i)
		}
		buf.WriteString(text)
	}

	text := normalizeText(buf.String())
	if len(strings.TrimSpace(text)) < minTextLayerChars {
		return nil, WrapOCRError(op, ErrEmptyDocument, "no usable text layer")
	}

	res := &OCRResult{
		Text:       text,
		PageCount:  pageCount,
		Confidence: 1,
	}
	return res.finish(s.Name(), startTime), nil
}
