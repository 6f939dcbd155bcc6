package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/ingest"
	"github.com/iliyamo/olymp-admission/internal/queue"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/sheets"
)

// maxScanBytes caps uploaded scan images at 20 MiB.
const maxScanBytes = 20 << 20

// ScanHandler serves the scanning station: uploads, the review queue
// and the scoring actions.
type ScanHandler struct {
	Ingest   *ingest.Service
	Sheets   *sheets.Service
	Scans    *repository.ScanRepo
	Attempts *repository.AttemptRepo
}

func NewScanHandler(ing *ingest.Service, sh *sheets.Service,
	scans *repository.ScanRepo, atts *repository.AttemptRepo) *ScanHandler {
	return &ScanHandler{Ingest: ing, Sheets: sh, Scans: scans, Attempts: atts}
}

// Upload stores a scan image and enqueues it for processing.  The image
// arrives as the multipart field "image" or as the raw request body.
func (h *ScanHandler) Upload(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	image, ext, err := readImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image upload"})
	}
	if len(image) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty image"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	scan, err := h.Ingest.Upload(ctx, image, ext, actorID)
	if err != nil {
		return writeRepoError(c, err)
	}

	// A failed publish leaves the scan stored but unprocessed; the
	// worker queue is best effort here and the row can be requeued.
	ev := queue.ScanUploadedEvent{
		ScanID:     scan.ID,
		FilePath:   scan.FilePath,
		UploadedBy: actorID,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue.PublishScanUploaded(ctx, ev); err != nil {
		c.Logger().Warnf("scan %d uploaded but not enqueued: %v", scan.ID, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"scan_id": scan.ID})
}

func readImage(c echo.Context) ([]byte, string, error) {
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxScanBytes))
		return data, filepath.Ext(fh.Filename), err
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxScanBytes))
	return data, "", err
}

// Get returns a scan row with its OCR output.
func (h *ScanHandler) Get(c echo.Context) error {
	scanID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scan id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scan, err := h.Scans.GetByID(ctx, scanID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, scan)
}

// PendingReview lists primary-sheet scans below the confidence gate,
// oldest first.
func (h *ScanHandler) PendingReview(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scansList, err := h.Ingest.PendingReview(ctx, limit, offset)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, scansList)
}

type verifyScoreReq struct {
	Score int `json:"score"`
}

// VerifyScore records a manual score check on a scan and moves its
// attempt to SCORED.
func (h *ScanHandler) VerifyScore(c echo.Context) error {
	scanID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scan id"})
	}
	var req verifyScoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Score < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be non-negative"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ingest.VerifyScore(ctx, scanID, req.Score, actorID, clientIP(c)); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ApplyScore writes a manual score directly on an attempt.
func (h *ScanHandler) ApplyScore(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}
	var req verifyScoreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Score < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be non-negative"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ingest.ApplyScore(ctx, attemptID, req.Score, actorID, clientIP(c)); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Publish finalises a scored attempt.
func (h *ScanHandler) Publish(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ingest.Publish(ctx, attemptID, actorID, clientIP(c)); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type invalidateReq struct {
	Reason string `json:"reason"`
}

// Invalidate removes an attempt from scoring.
func (h *ScanHandler) Invalidate(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}
	var req invalidateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ingest.Invalidate(ctx, attemptID, req.Reason, actorID, clientIP(c)); err != nil {
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAttempt returns an attempt with its sheets.
func (h *ScanHandler) GetAttempt(c echo.Context) error {
	attemptID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attempt id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	att, err := h.Attempts.GetByID(ctx, attemptID)
	if err != nil {
		return writeRepoError(c, err)
	}
	sheetsList, err := h.Sheets.ListByAttempt(ctx, attemptID)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"attempt": att, "sheets": sheetsList})
}
