package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kevin-Kurka/webstarter/internal/domain"
	"github.com/Kevin-Kurka/webstarter/internal/middleware"
	"github.com/Kevin-Kurka/webstarter/internal/pkg"
)

// UserPageHandler handles server-rendered pages for the user module.
type UserPageHandler struct {
	svc domain.UserService
}

// NewUserPageHandler creates a new UserPageHandler with the given service.
func NewUserPageHandler(svc domain.UserService) *UserPageHandler {
	return &UserPageHandler{svc: svc}
}

// ListPage renders the user list page with pagination.
// GET /users
func (h *UserPageHandler) ListPage(c *gin.Context) {
	req := pkg.ParsePageRequest(c)

	result, err := h.svc.ListUsers(c.Request.Context(), req)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	c.HTML(http.StatusOK, "user/list.html", gin.H{
		"Users":      result.Items,
		"Pagination": result,
		"BaseURL":    "/users",
		"CSRFToken":  middleware.GetCSRFToken(c),
	})
}
