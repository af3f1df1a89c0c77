package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ExtractImage runs tesseract twice over one image: once for the plain text
// and once in TSV mode for per-word confidences.
func (e *Engine) ExtractImage(ctx context.Context, path string) (Page, error) {
	txt, err := e.tesseractText(ctx, path)
	if err != nil {
		return Page{}, err
	}

	tokens, err := e.tesseractTokens(ctx, path)
	if err != nil {
		// Text came through; a failed confidence pass degrades to zero
		// tokens rather than failing the page.
		e.logger.Warn("ocr.tsv_confidence_failed", "path", path, "error", err)
		tokens = nil
	}

	return Page{Text: Normalize(txt), Tokens: tokens}, nil
}

func (e *Engine) tesseractText(ctx context.Context, path string) (string, error) {
	args := e.tesseractArgs(path)

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// tesseractTokens runs tesseract in TSV mode and collects word-level tokens.
// TSV rows are level..conf,text; conf is -1 for non-word rows.
func (e *Engine) tesseractTokens(ctx context.Context, path string) ([]Token, error) {
	args := append(e.tesseractArgs(path), "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	var tokens []Token
	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || ln == "" { // skip header
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			continue
		}
		tokens = append(tokens, Token{Text: cols[11], Confidence: int(conf)})
	}
	return tokens, nil
}

func (e *Engine) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}
