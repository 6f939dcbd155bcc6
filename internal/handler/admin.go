package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/model"
	"github.com/iliyamo/olymp-admission/internal/repository"
)

// AdminHandler covers competition setup: competitions, rooms and
// institutions.  All endpoints require the ADMIN role.
type AdminHandler struct {
	Competitions *repository.CompetitionRepo
	Rooms        *repository.RoomRepo
	Institutions *repository.InstitutionRepo
}

func NewAdminHandler(comps *repository.CompetitionRepo, rooms *repository.RoomRepo,
	insts *repository.InstitutionRepo) *AdminHandler {
	return &AdminHandler{Competitions: comps, Rooms: rooms, Institutions: insts}
}

type createCompetitionReq struct {
	Name          string     `json:"name"`
	VariantsCount int        `json:"variants_count"`
	StartsAt      *time.Time `json:"starts_at"`
}

// CreateCompetition adds a competition in DRAFT.
func (h *AdminHandler) CreateCompetition(c echo.Context) error {
	var req createCompetitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comp := &model.Competition{Name: req.Name, VariantsCount: req.VariantsCount, StartsAt: req.StartsAt}
	if err := h.Competitions.Create(ctx, comp); err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, comp)
}

// ListCompetitions returns all competitions, newest first.
func (h *AdminHandler) ListCompetitions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comps, err := h.Competitions.List(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, comps)
}

type createRoomReq struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// CreateRoom adds a room to a competition.
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	compID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid competition id"})
	}
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room := &model.Room{CompetitionID: compID, Name: req.Name, Capacity: req.Capacity}
	if err := h.Rooms.Create(ctx, room); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

type roomResp struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
}

// ListRooms returns the rooms of a competition with occupancy.
func (h *AdminHandler) ListRooms(c echo.Context) error {
	compID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid competition id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rooms, err := h.Rooms.ListByCompetition(ctx, compID)
	if err != nil {
		return writeRepoError(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomResp{ID: r.Room.ID, Name: r.Room.Name, Capacity: r.Room.Capacity, Occupied: r.Occupied})
	}
	return c.JSON(http.StatusOK, out)
}

type updateCapacityReq struct {
	Capacity int `json:"capacity"`
}

// UpdateRoomCapacity changes a room's capacity.  Shrinking below the
// current occupancy is refused.
func (h *AdminHandler) UpdateRoomCapacity(c echo.Context) error {
	roomID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req updateCapacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "positive capacity required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.UpdateCapacity(ctx, roomID, req.Capacity); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below current occupancy"})
		}
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createInstitutionReq struct {
	Name      string  `json:"name"`
	ShortName *string `json:"short_name"`
	City      *string `json:"city"`
}

// CreateInstitution adds an institution.
func (h *AdminHandler) CreateInstitution(c echo.Context) error {
	var req createInstitutionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inst := &model.Institution{Name: req.Name, ShortName: req.ShortName, City: req.City}
	if err := h.Institutions.Create(ctx, inst); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "institution already exists"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, inst)
}

// ListInstitutions returns all institutions.
func (h *AdminHandler) ListInstitutions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	insts, err := h.Institutions.List(ctx)
	if err != nil {
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusOK, insts)
}

// DeleteInstitution removes an institution that no seated registration
// references.
func (h *AdminHandler) DeleteInstitution(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid institution id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Institutions.Delete(ctx, id); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "institution has seated participants"})
		}
		return writeRepoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
