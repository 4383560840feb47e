package ocr

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// MaxPagesSync is the maximum number of pages for synchronous processing
const MaxPagesSync = 5

// visionClient is the subset of the Vision client the service calls.
type visionClient interface {
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// GoogleVisionOCRService implements OCRService using Google Cloud Vision API.
type GoogleVisionOCRService struct {
	client visionClient
	log    zerolog.Logger
}

// NewGoogleVisionOCRService creates a new OCR service with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionOCRService(ctx context.Context) (*GoogleVisionOCRService, error) {
	const op = "NewGoogleVisionOCRService"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return newGoogleVisionOCRService(client), nil
}

// NewGoogleVisionOCRServiceWithClient creates a new OCR service with an explicit client.
func NewGoogleVisionOCRServiceWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionOCRService {
	return newGoogleVisionOCRService(client)
}

func newGoogleVisionOCRService(client visionClient) *GoogleVisionOCRService {
	return &GoogleVisionOCRService{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}
}

// Name implements OCRService.
func (g *GoogleVisionOCRService) Name() string {
	return "vision"
}

// ExtractText sends the file to Vision document text detection. PDFs go
// through the files endpoint (first five pages), images through the images
// endpoint.
func (g *GoogleVisionOCRService) ExtractText(ctx context.Context, path string, hint models.DocumentFamily) (*OCRResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	data, mime, err := readFile(op, path)
	if err != nil {
		return nil, err
	}

	g.log.Debug().
		Str("file", path).
		Str("mime_type", mime).
		Int("bytes", len(data)).
		Str("hint", hint.String()).
		Msg("Sending document to Vision API")

	var result *OCRResult
	if mime == "application/pdf" {
		result, err = g.annotateFile(ctx, data, mime)
	} else {
		result, err = g.annotateImage(ctx, data, hint)
	}
	if err != nil {
		return nil, WrapOCRError(op, err, "")
	}

	return result.finish(g.Name(), startTime), nil
}

func (g *GoogleVisionOCRService) annotateFile(ctx context.Context, data []byte, mime string) (*OCRResult, error) {
	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: mime,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, handleCloudError(err, "Vision API call failed")
	}

	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("%w: no response from Vision API", ErrOCRFailed)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, fmt.Errorf("%w: Vision API error: %s", ErrOCRFailed, fileResp.Error.Message)
	}

	return processFileResponse(fileResp)
}

func (g *GoogleVisionOCRService) annotateImage(ctx context.Context, data []byte, hint models.DocumentFamily) (*OCRResult, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: languageHints(hint)},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, handleCloudError(err, "Vision API call failed")
	}

	return processPages(resp.Responses)
}

// languageHints keeps Vision from guessing scripts on Latin-only MRZ text.
// Cards and licenses are bilingual.
func languageHints(hint models.DocumentFamily) []string {
	switch hint {
	case models.FamilyPassport:
		return []string{"en"}
	case models.FamilyEmiratesID, models.FamilyTradeLicense:
		return []string{"en", "ar"}
	}
	return nil
}

// processFileResponse processes the Vision API response and extracts text with metadata.
func processFileResponse(fileResp *visionpb.AnnotateFileResponse) (*OCRResult, error) {
	if len(fileResp.Responses) > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, len(fileResp.Responses))
	}
	return processPages(fileResp.Responses)
}

// processPages joins per-page annotations with page separators and averages
// the reported confidence.
func processPages(pages []*visionpb.AnnotateImageResponse) (*OCRResult, error) {
	if len(pages) == 0 {
		return nil, ErrEmptyDocument
	}

	var allText strings.Builder
	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for pageIdx, page := range pages {
		if page.Error != nil {
			return nil, fmt.Errorf("%w: error processing page %d: %s", ErrOCRFailed, pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}

		// Add page separator (except for first page)
		if pageIdx > 0 {
			fmt.Fprintf(&allText, "\n\n--- Page %d ---\n\n", pageIdx+1)
		}
		allText.WriteString(page.FullTextAnnotation.Text)

		for _, textAnnotation := range page.TextAnnotations {
			if textAnnotation.Confidence > 0 {
				confidenceSum += textAnnotation.Confidence
				confidenceCount++
			}
		}
		for _, p := range page.FullTextAnnotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += p.Confidence
				confidenceCount++
			}
			collectLanguages(p, languageSet)
		}
	}

	extractedText := allText.String()
	if strings.TrimSpace(extractedText) == "" {
		return nil, ErrEmptyDocument
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	return &OCRResult{
		Text:          extractedText,
		PageCount:     len(pages),
		Confidence:    avgConfidence,
		LanguageCodes: sortedKeys(languageSet),
	}, nil
}

func collectLanguages(page *visionpb.Page, set map[string]bool) {
	if page.Property != nil {
		for _, lang := range page.Property.DetectedLanguages {
			if lang.LanguageCode != "" {
				set[lang.LanguageCode] = true
			}
		}
	}
	for _, block := range page.Blocks {
		for _, paragraph := range block.Paragraphs {
			for _, word := range paragraph.Words {
				for _, symbol := range word.Symbols {
					if symbol.Property == nil {
						continue
					}
					for _, lang := range symbol.Property.DetectedLanguages {
						if lang.LanguageCode != "" {
							set[lang.LanguageCode] = true
						}
					}
				}
			}
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// handleCloudError maps Google API failures onto OCR sentinel errors.
func handleCloudError(err error, details string) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "PermissionDenied") || strings.Contains(errStr, "Unauthenticated"):
		return fmt.Errorf("%w: insufficient permissions: %v", ErrMissingCredentials, err)
	case strings.Contains(errStr, "QUOTA_EXCEEDED") || strings.Contains(errStr, "ResourceExhausted"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(errStr, "INVALID_ARGUMENT") || strings.Contains(errStr, "InvalidArgument"):
		return fmt.Errorf("%w: document format not supported or corrupted: %v", ErrUnsupportedFormat, err)
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return fmt.Errorf("processing timeout: %w", context.DeadlineExceeded)
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrOCRFailed, details, err)
	}
}

// Close closes the underlying Vision client.
func (g *GoogleVisionOCRService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
