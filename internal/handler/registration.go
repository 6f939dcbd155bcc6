package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/config"
	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/token"
)

// RegistrationHandler manages registrations and their entry tokens.
type RegistrationHandler struct {
	Cfg           config.Config
	Tokens        *token.Service
	Registrations *repository.RegistrationRepo
	EntryTokens   *repository.EntryTokenRepo
	Competitions  *repository.CompetitionRepo
	Seats         *repository.SeatAssignmentRepo
	Attempts      *repository.AttemptRepo
}

func NewRegistrationHandler(cfg config.Config, tokens *token.Service,
	regs *repository.RegistrationRepo, entry *repository.EntryTokenRepo,
	comps *repository.CompetitionRepo, seats *repository.SeatAssignmentRepo,
	atts *repository.AttemptRepo) *RegistrationHandler {
	return &RegistrationHandler{Cfg: cfg, Tokens: tokens, Registrations: regs,
		EntryTokens: entry, Competitions: comps, Seats: seats, Attempts: atts}
}

type createRegistrationReq struct {
	CompetitionID   uint64  `json:"competition_id"`
	ParticipantName string  `json:"participant_name"`
	InstitutionID   *uint64 `json:"institution_id"`
}

// Create registers a participant for a competition in status APPROVED.
func (h *RegistrationHandler) Create(c echo.Context) error {
	var req createRegistrationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	if req.CompetitionID == 0 || req.ParticipantName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "competition_id and participant_name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Competitions.GetByID(ctx, req.CompetitionID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown competition"})
		}
		return writeRepoError(c, err)
	}

	reg := &model.Registration{
		CompetitionID:   req.CompetitionID,
		ParticipantName: req.ParticipantName,
		InstitutionID:   req.InstitutionID,
	}
	if err := h.Registrations.Create(ctx, reg); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

type entryTokenResp struct {
	RegistrationID uint64    `json:"registration_id"`
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IssueEntryToken creates the one-time entry credential for a
// registration.  The raw value appears only in this response; it is
// embedded into the participant's QR invitation and never stored.
// Each registration gets exactly one token.
func (h *RegistrationHandler) IssueEntryToken(c echo.Context) error {
	regID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reg, err := h.Registrations.GetByID(ctx, regID)
	if err != nil {
		return writeRepoError(c, err)
	}
	if reg.Status != model.RegistrationApproved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "registration already admitted"})
	}

	raw, hash, err := h.Tokens.Issue()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	et := &model.EntryToken{
		RegistrationID: reg.ID,
		TokenHash:      hash,
		ExpiresAt:      time.Now().UTC().Add(time.Duration(h.Cfg.EntryTokenTTLHrs) * time.Hour),
	}
	if err := h.EntryTokens.Create(ctx, et); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "token already issued"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, entryTokenResp{
		RegistrationID: reg.ID,
		Token:          raw,
		ExpiresAt:      et.ExpiresAt,
	})
}

type registrationDetailResp struct {
	Registration    model.Registration    `json:"registration"`
	InstitutionName *string               `json:"institution_name"`
	CompetitionName string                `json:"competition_name"`
	Seat            *model.SeatAssignment `json:"seat,omitempty"`
	Attempt         *model.Attempt        `json:"attempt,omitempty"`
}

// Get returns a registration with its placement and attempt, when they
// exist.
func (h *RegistrationHandler) Get(c echo.Context) error {
	regID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid registration id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Registrations.GetDetail(ctx, regID)
	if err != nil {
		return writeRepoError(c, err)
	}
	resp := registrationDetailResp{
		Registration:    d.Registration,
		InstitutionName: d.InstitutionName,
		CompetitionName: d.CompetitionName,
	}
	if sa, err := h.Seats.GetByRegistration(ctx, regID); err == nil {
		resp.Seat = sa
	} else if err != repository.ErrNotFound {
		return writeRepoError(c, err)
	}
	if att, err := h.Attempts.GetByRegistration(ctx, regID); err == nil {
		resp.Attempt = att
	} else if err != repository.ErrNotFound {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
