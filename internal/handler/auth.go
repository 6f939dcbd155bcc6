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
	"github.com/iliyamo/olymp-admission/internal/utils"
)

// AuthHandler bundles dependencies for staff auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResp struct {
	User    userPart  `json:"user"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login verifies staff credentials and returns a signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return writeRepoError(c, err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Token:   access.Token,
		Expires: access.Exp,
	})
}

// CreateUser adds a staff account.  Admin only; there is no public
// registration.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	switch role {
	case model.RoleAdmin, model.RoleAdmitter, model.RoleInvigilator, model.RoleScanner:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := &model.User{Email: req.Email, PasswordHash: hash, Role: role, IsActive: true}
	if err := h.Users.Create(ctx, u); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return writeRepoError(c, err)
	}
	return c.JSON(http.StatusCreated, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
