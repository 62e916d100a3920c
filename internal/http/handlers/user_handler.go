// User HTTP handler.
//
// This file exposes the user lifecycle endpoint:
//   - PUT /users/me  (ensure the user row exists)
//
// The storefront calls this once per session after sign-in. The first call
// inserts the user row with the supplied profile fields; later calls return
// the existing row untouched, so the endpoint is safe to repeat.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-store-backend/internal/domain"
)

// EnsureUserRequest is the JSON payload of the user sync call. All fields
// are optional; identity-token claims take precedence when present.
type EnsureUserRequest struct {
	Email     string `json:"email" example:"ada@example.com"`
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
}

// EnsureUserResponse wraps the user row and whether it was just created.
type EnsureUserResponse struct {
	User    *domain.User `json:"user"`
	Created bool         `json:"created" example:"true"`
}

// EnsureUser godoc
// @ID          ensureUser
// @Summary     Ensure the current user exists
// @Description Creates the user row on the first visit with the given profile fields (or the identity-token claims, which win when present). Existing rows are returned as-is; the profile is never overwritten.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.EnsureUserRequest  false  "Profile fields for first visit"
//
// @Success     200  {object} handlers.EnsureUserResponse "Existing user"
// @Success     201  {object} handlers.EnsureUserResponse "User created"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me [put]
func (h *Handlers) EnsureUser(c *gin.Context) {
	var req EnsureUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	email := strings.TrimSpace(req.Email)
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	// Verified token claims override whatever the client posted.
	if ce, cf, cl := claims(c); ce != "" || cf != "" || cl != "" {
		if ce != "" {
			email = ce
		}
		if cf != "" {
			first = cf
		}
		if cl != "" {
			last = cl
		}
	}

	u, created, err := h.userSvc.Ensure(c.Request.Context(), userID(c), email, first, last)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, EnsureUserResponse{User: u, Created: created})
}

// claims reads the identity-token profile claims set by the auth middleware.
func claims(c *gin.Context) (email, first, last string) {
	get := func(key string) string {
		if v, ok := c.Get(key); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	return get("userEmail"), get("userFirstName"), get("userLastName")
}
