package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/admission"
	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/sheets"
)

// AdmissionHandler serves the entrance desk: token preview and the
// approve action that seats the participant and prints the primary
// sheet.
type AdmissionHandler struct {
	Admission *admission.Service
	Sheets    *sheets.Service
}

func NewAdmissionHandler(adm *admission.Service, sh *sheets.Service) *AdmissionHandler {
	return &AdmissionHandler{Admission: adm, Sheets: sh}
}

type tokenReq struct {
	Token string `json:"token"`
}

// Verify resolves an entry credential without consuming it, so the
// admitter can confirm the participant's identity before approving.
func (h *AdmissionHandler) Verify(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Admission.VerifyEntry(ctx, req.Token)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type approveResp struct {
	RegistrationID  uint64 `json:"registration_id"`
	ParticipantName string `json:"participant_name"`
	AttemptID       uint64 `json:"attempt_id"`
	SheetID         uint64 `json:"sheet_id"`
	SheetToken      string `json:"sheet_token"`
	RoomID          uint64 `json:"room_id"`
	RoomName        string `json:"room_name"`
	SeatNumber      int    `json:"seat_number"`
	VariantNumber   int    `json:"variant_number"`
}

// Approve redeems the entry token: the participant is admitted, seated,
// and gets a primary answer sheet.  The sheet credential in the
// response exists only here and on the printed sheet.
func (h *AdmissionHandler) Approve(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Admission.Approve(ctx, req.Token, actorID, clientIP(c))
	if err != nil {
		return writeRepoError(c, err)
	}

	// Render the printable sheet off the request path; the desk polls
	// the sheet document endpoint if it is not ready immediately.
	go h.Sheets.Render(context.Background(), res.SheetID, res.AttemptID, sheets.Document{
		ParticipantName: res.ParticipantName,
		CompetitionName: res.CompetitionName,
		RoomName:        res.RoomName,
		SeatNumber:      res.SeatNumber,
		VariantNumber:   res.VariantNumber,
		Kind:            model.SheetPrimary,
		RawToken:        res.SheetToken,
	})

	return c.JSON(http.StatusOK, approveResp{
		RegistrationID:  res.RegistrationID,
		ParticipantName: res.ParticipantName,
		AttemptID:       res.AttemptID,
		SheetID:         res.SheetID,
		SheetToken:      res.SheetToken,
		RoomID:          res.RoomID,
		RoomName:        res.RoomName,
		SeatNumber:      res.SeatNumber,
		VariantNumber:   res.VariantNumber,
	})
}
