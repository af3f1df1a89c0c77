// Package server exposes the pipeline over HTTP. The JSON bodies here are
// the system's public contract; handlers translate between them and the
// pipeline types without adding behavior.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medreport-ai/simplifier/constants"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/export"
	"github.com/medreport-ai/simplifier/internal/pipeline"
	"github.com/medreport-ai/simplifier/internal/report"
)

type Server struct {
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

func New(pipe *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipe: pipe, logger: logger}
}

// Register mounts all routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/", s.root)
	e.GET("/health", s.health)
	e.POST("/process/text", s.processText)
	e.POST("/process/document", s.processDocument)
	e.POST("/export/xlsx", s.exportXLSX)

	// Stage endpoints for debugging and operational inspection.
	e.POST("/ocr", s.runOCR)
	e.POST("/extract", s.runExtract)
	e.POST("/validate", s.runValidate)
	e.POST("/summarize", s.runSummarize)
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "medical report simplifier",
		"version": "0.1.0",
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) processText(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	res := s.pipe.RunText(requestContext(c), req.Text)
	return c.JSON(http.StatusOK, res)
}

func (s *Server) processDocument(c echo.Context) error {
	data, mediaType, err := readUpload(c)
	if err != nil {
		return err
	}
	res, err := s.pipe.RunDocument(requestContext(c), data, mediaType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) exportXLSX(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	res := s.pipe.RunText(requestContext(c), req.Text)
	if res.Status != constants.StatusOK {
		return c.JSON(http.StatusOK, res)
	}
	b, err := export.BuildWorkbook(res, s.logger)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
}

func (s *Server) runOCR(c echo.Context) error {
	data, mediaType, err := readUpload(c)
	if err != nil {
		return err
	}
	blob, err := s.pipe.Acquire(requestContext(c), data, mediaType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, blob)
}

func (s *Server) runExtract(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	res, err := s.pipe.ExtractOnly(requestContext(c), req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

type validateRequest struct {
	Text  string              `json:"text"`
	Tests []report.TestRecord `json:"tests"`
}

func (s *Server) runValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	outcome := s.pipe.ValidateOnly(requestContext(c), req.Text, req.Tests)
	return c.JSON(http.StatusOK, outcome)
}

type summarizeRequest struct {
	Tests []report.TestRecord `json:"tests"`
}

func (s *Server) runSummarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.pipe.SummarizeOnly(requestContext(c), req.Tests)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// readUpload accepts either a multipart "file" part or a raw body with a
// Content-Type header.
func readUpload(c echo.Context) ([]byte, string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
		}
		mediaType := fh.Header.Get("Content-Type")
		return data, mediaType, nil
	}

	mediaType := c.Request().Header.Get(echo.HeaderContentType)
	data, err := io.ReadAll(c.Request().Body)
	if err != nil || len(data) == 0 {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "empty request body")
	}
	return data, mediaType, nil
}

// requestContext tags the request context with the id assigned by the
// request-id middleware so pipeline logs correlate with access logs.
func requestContext(c echo.Context) context.Context {
	return common.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrAcquisition):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
}
