package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medreport-ai/simplifier/constants"
	"github.com/medreport-ai/simplifier/internal/acquire"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/ocr"
	"github.com/medreport-ai/simplifier/internal/oracle"
	"github.com/medreport-ai/simplifier/internal/pipeline"
	"github.com/medreport-ai/simplifier/internal/report"
)

type scriptedClient struct {
	completions []string
	calls       int
}

func (s *scriptedClient) Complete(context.Context, string, oracle.Options) (string, error) {
	s.calls++
	if s.calls > len(s.completions) {
		return "", fmt.Errorf("scriptedClient: unexpected call %d", s.calls)
	}
	return s.completions[s.calls-1], nil
}

type fakeReader struct{ page ocr.Page }

func (f *fakeReader) ExtractImage(context.Context, string) (ocr.Page, error) { return f.page, nil }
func (f *fakeReader) ExtractPDF(context.Context, string) (ocr.Result, error) {
	return ocr.Result{Pages: []ocr.Page{f.page}}, nil
}

func newTestServer(sc *scriptedClient, reader acquire.DocumentReader) *echo.Echo {
	if reader == nil {
		reader = &fakeReader{}
	}
	cfg := common.OracleConfig{MaxTokens: 2048, Temperature: 0.1}
	pipe := pipeline.New(
		acquire.NewAcquirer(reader, nil),
		pipeline.NewExtractor(sc, cfg, nil),
		pipeline.NewValidator(sc, cfg, nil),
		pipeline.NewSummarizer(sc, cfg, nil),
		common.PipelineConfig{OCRConfidenceThreshold: 0.6, OCRRejectThreshold: 0.3, ValidationConfidenceThreshold: 0.7},
		nil,
	)
	e := echo.New()
	New(pipe, nil).Register(e)
	return e
}

var happyCompletions = []string{
	`{"tests": [{"name": "Hemoglobin", "value": 8.5, "unit": "g/dL", "status": "low", "ref_range": {"low": 12.0, "high": 16.0}}], "normalization_confidence": 0.95}`,
	`{"status": "ok", "confidence": 0.9, "test_validations": [{"test_name": "Hemoglobin", "is_valid": true, "confidence": 0.9, "evidence": "Hb 8.5"}]}`,
	`{"summary": "Your hemoglobin is a bit low.", "explanations": [{"text": "Hemoglobin carries oxygen.", "test_name": "Hemoglobin"}]}`,
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(&scriptedClient{}, nil)
	rec := doJSON(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProcessText(t *testing.T) {
	t.Run("ok result", func(t *testing.T) {
		e := newTestServer(&scriptedClient{completions: happyCompletions}, nil)
		rec := doJSON(e, http.MethodPost, "/process/text", `{"text": "Hb 8.5 g/dL (12.0-16.0)"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var res report.PipelineResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Status != constants.StatusOK {
			t.Fatalf("status = %q, reason = %q", res.Status, res.Reason)
		}
		if len(res.Tests) != 1 || res.Tests[0].Name != "Hemoglobin" {
			t.Errorf("tests = %+v", res.Tests)
		}
	})

	t.Run("unprocessed still returns 200", func(t *testing.T) {
		e := newTestServer(&scriptedClient{completions: []string{`{"tests": []}`}}, nil)
		rec := doJSON(e, http.MethodPost, "/process/text", `{"text": "Dear patient"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var res report.PipelineResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Status != constants.StatusUnprocessed {
			t.Errorf("status = %q", res.Status)
		}
	})

	t.Run("missing text is 400", func(t *testing.T) {
		e := newTestServer(&scriptedClient{}, nil)
		rec := doJSON(e, http.MethodPost, "/process/text", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		e := newTestServer(&scriptedClient{}, nil)
		rec := doJSON(e, http.MethodPost, "/process/text", `{"text": `)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestProcessDocument(t *testing.T) {
	t.Run("raw image body", func(t *testing.T) {
		reader := &fakeReader{page: ocr.Page{
			Text:   "Hb 8.5 g/dL",
			Tokens: []ocr.Token{{Text: "Hb", Confidence: 90}, {Text: "8.5", Confidence: 92}},
		}}
		e := newTestServer(&scriptedClient{completions: happyCompletions}, reader)

		req := httptest.NewRequest(http.MethodPost, "/process/document", strings.NewReader("png-bytes"))
		req.Header.Set(echo.HeaderContentType, "image/png")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var res report.PipelineResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Status != constants.StatusOK {
			t.Errorf("status = %q, reason = %q", res.Status, res.Reason)
		}
	})

	t.Run("unsupported media type is 400", func(t *testing.T) {
		e := newTestServer(&scriptedClient{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/process/document", strings.NewReader("zip-bytes"))
		req.Header.Set(echo.HeaderContentType, "application/zip")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestStageEndpoints(t *testing.T) {
	t.Run("extract", func(t *testing.T) {
		e := newTestServer(&scriptedClient{completions: happyCompletions[:1]}, nil)
		rec := doJSON(e, http.MethodPost, "/extract", `{"text": "Hb 8.5 g/dL"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var res report.ExtractionResult
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(res.Tests) != 1 {
			t.Errorf("tests = %+v", res.Tests)
		}
	})

	t.Run("validate", func(t *testing.T) {
		e := newTestServer(&scriptedClient{completions: happyCompletions[1:2]}, nil)
		body := `{"text": "Hb 8.5", "tests": [{"name": "Hemoglobin", "value": 8.5, "unit": "g/dL", "status": "low", "ref_range": {"low": 12.0, "high": 16.0}}]}`
		rec := doJSON(e, http.MethodPost, "/validate", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var out report.ValidationOutcome
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.IsRejected() {
			t.Errorf("outcome = %+v", out)
		}
	})

	t.Run("summarize with no tests short-circuits", func(t *testing.T) {
		sc := &scriptedClient{}
		e := newTestServer(sc, nil)
		rec := doJSON(e, http.MethodPost, "/summarize", `{"tests": []}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if sc.calls != 0 {
			t.Errorf("oracle calls = %d, want 0", sc.calls)
		}
	})
}

func TestExportXLSX(t *testing.T) {
	e := newTestServer(&scriptedClient{completions: happyCompletions}, nil)
	rec := doJSON(e, http.MethodPost, "/export/xlsx", `{"text": "Hb 8.5 g/dL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "report.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}
