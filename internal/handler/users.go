package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/config"
	"github.com/iliyamo/hotel-operations/internal/model"
)

// UserDirectory is the account administration surface of
// repository.UserRepo.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	SetPassword(ctx context.Context, id uint64, password string, cost int) error
	Delete(ctx context.Context, id uint64) error
}

// UserHandler serves /v1/users. Everyone may read and edit their own
// profile; the rest needs staff capabilities.
type UserHandler struct {
	Cfg    config.Config
	Users  UserDirectory
	Tokens RefreshStore
}

func NewUserHandler(cfg config.Config, u UserDirectory, t RefreshStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t}
}

type userView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role.String(), IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

type updateUserReq struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

func (r updateUserReq) patch() (model.UserPatch, error) {
	p := model.UserPatch{Name: r.Name, Phone: r.Phone, Password: r.Password, IsActive: r.IsActive}
	if r.Role != nil {
		role, err := model.ParseRole(*r.Role)
		if err != nil {
			return p, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
		}
		p.Role = &role
	}
	return p, nil
}

// mayView reports whether a can read the account with the given id.
func mayView(a model.Actor, id uint64) bool {
	return a.ID == id || a.Role.Can(model.CapViewUsers)
}

// List: GET /v1/users?role&search
func (h *UserHandler) List(c echo.Context) error {
	f := model.UserFilter{Search: c.QueryParam("search")}
	if v := c.QueryParam("role"); v != "" {
		role, err := model.ParseRole(v)
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.Role = role
	}
	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()
	users, err := h.Users.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get: GET /v1/users/:id
func (h *UserHandler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if !mayView(actor(c), id) {
		return fail(c, model.ErrForbidden)
	}
	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(u))
}

// Update: PUT /v1/users/:id. Users edit their own name, phone and
// password; role and active flag need CapManageUsers. A password change
// or deactivation ends every session of the account.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	p, err := req.patch()
	if err != nil {
		return fail(c, err)
	}
	a := actor(c)
	admin := a.Role.Can(model.CapManageUsers)
	if !admin && (a.ID != id || p.Role != nil || p.IsActive != nil) {
		return fail(c, model.ErrForbidden)
	}

	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return badRequest(c, "name cannot be empty")
		}
		u.Name = name
	}
	if p.Phone != nil {
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	deactivated := false
	if p.IsActive != nil {
		deactivated = u.IsActive && !*p.IsActive
		u.IsActive = *p.IsActive
	}
	if err := h.Users.Update(ctx, &u); err != nil {
		return fail(c, err)
	}
	if p.Password != nil {
		if err := h.Users.SetPassword(ctx, id, *p.Password, h.Cfg.BcryptCost); err != nil {
			return fail(c, err)
		}
	}
	if p.Password != nil || deactivated {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return fail(c, err)
		}
	}
	if admin && a.ID != id {
		log.WithFields(log.Fields{"user_id": id, "role": u.Role.String(), "active": u.IsActive, "by": a.ID}).Info("account updated")
	}
	return c.JSON(http.StatusOK, viewOf(u))
}

// Delete: DELETE /v1/users/:id. Accounts cannot delete themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return fail(c, err)
	}
	a := actor(c)
	if a.ID == id {
		return badRequest(c, "cannot delete your own account")
	}
	ctx, cancel := withTimeout(c, h.Cfg.RequestTimeout)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	log.WithFields(log.Fields{"user_id": id, "by": a.ID}).Info("account deleted")
	return c.NoContent(http.StatusNoContent)
}
