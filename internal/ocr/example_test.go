package ocr_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"docextract/internal/config"
	"docextract/internal/ocr"
	"docextract/pkg/models"
)

// Example builds the engine chain from the environment and reads a passport scan.
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OCRTimeout)
	defer cancel()

	svc, err := ocr.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create OCR service: %v", err)
	}

	info, err := ocr.Inspect("passport.jpg", cfg.MaxUploadBytes)
	if err != nil {
		log.Fatalf("Rejected input: %v", err)
	}

	result, err := svc.ExtractText(ctx, info.Path, models.FamilyPassport)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrEmptyDocument):
			log.Printf("No readable text found in the document.")
		case errors.Is(err, ocr.ErrMissingCredentials):
			log.Printf("Please set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.")
		default:
			log.Printf("OCR processing failed: %v", err)
		}
		return
	}

	fmt.Printf("%s read %d pages in %v\n", result.Engine, result.PageCount, result.ProcessingDuration.Round(time.Millisecond))
	fmt.Println(result.Text)
}
