package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docextract/internal/logger"
	"docextract/pkg/models"
)

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	log zerolog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.log.Error().
			Err(err).
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Int64("duration_ms", dur.Milliseconds()).
			Str("stderr", truncate(errb.String(), 8<<10)).
			Msg("Command failed")
	} else {
		r.log.Debug().
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Int64("duration_ms", dur.Milliseconds()).
			Int("stdout_bytes", out.Len()).
			Msg("Command finished")
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// Tesseract page segmentation mode for a single uniform block of text.
const psmUniformBlock = 6

// Character whitelists per document family. MRZ text only ever uses upper
// case letters, digits and the filler.
const (
	passportWhitelist   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789<"
	emiratesIDWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-/: "
)

// TesseractConfig configures the local tesseract engine.
type TesseractConfig struct {
	Path string // binary name or absolute path; if empty -> "tesseract"
	Lang string // default "eng"
}

// TesseractOCRService implements OCRService with the tesseract CLI. It reads
// images only.
type TesseractOCRService struct {
	cfg    TesseractConfig
	runner Runner
	log    zerolog.Logger
}

// NewTesseractOCRService returns a service that shells out to tesseract.
func NewTesseractOCRService(cfg TesseractConfig) *TesseractOCRService {
	log := logger.WithComponent("ocr-tesseract")
	return NewTesseractOCRServiceWithRunner(cfg, execRunner{log: log})
}

// NewTesseractOCRServiceWithRunner returns a service using runner.
func NewTesseractOCRServiceWithRunner(cfg TesseractConfig, runner Runner) *TesseractOCRService {
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &TesseractOCRService{
		cfg:    cfg,
		runner: runner,
		log:    logger.WithComponent("ocr-tesseract"),
	}
}

// Name implements OCRService.
func (t *TesseractOCRService) Name() string {
	return "tesseract"
}

// ExtractText runs `tesseract <file> stdout` with family specific settings.
func (t *TesseractOCRService) ExtractText(ctx context.Context, path string, hint models.DocumentFamily) (*OCRResult, error) {
	const op = "ExtractText"
	startTime := time.Now()

	if _, mime, err := readFile(op, path); err != nil {
		return nil, err
	} else if mime == "application/pdf" {
		return nil, WrapOCRError(op, ErrUnsupportedFormat, "tesseract reads images only")
	}

	args := t.args(path, hint)
	out, errb, err := t.runner.Run(ctx, t.cfg.Path, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, WrapOCRError(op, ctxErr, "tesseract interrupted")
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("tesseract binary %q not usable: %v", t.cfg.Path, err))
		}
		return nil, WrapOCRError(op, ErrOCRFailed, strings.TrimSpace(string(errb)))
	}

	text := normalizeText(string(out))
	if strings.TrimSpace(text) == "" {
		return nil, WrapOCRError(op, ErrEmptyDocument, path)
	}

	t.log.Debug().
		Str("file", path).
		Int("chars", len(text)).
		Msg("Tesseract extraction finished")

	res := &OCRResult{
		Text:          text,
		PageCount:     1,
		LanguageCodes: []string{t.cfg.Lang},
	}
	return res.finish(t.Name(), startTime), nil
}

func (t *TesseractOCRService) args(path string, hint models.DocumentFamily) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang, "--psm", fmt.Sprint(psmUniformBlock)}
	switch hint {
	case models.FamilyPassport:
		args = append(args, "-c", "tessedit_char_whitelist="+passportWhitelist)
	case models.FamilyEmiratesID:
		args = append(args, "-c", "tessedit_char_whitelist="+emiratesIDWhitelist)
	}
	return args
}

// normalizeText unifies line endings, trims trailing spaces and drops form feeds.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\f", "")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
