package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/med1001/privora/internal/store"
)

const searchLimit = 20

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store store.UserStore
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// ContactResponse is a search hit in the same shape as a contacts entry.
type ContactResponse struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// SearchUsers handles prefix search over accounts.
// GET /search-users?q=prefix
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query is required"})
		return
	}

	self := c.GetString(ContextKeyUserID)
	if self == "" {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	// One extra row so excluding the caller still fills the page.
	users, err := h.store.SearchUsers(c.Request.Context(), query, searchLimit+1)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ContactResponse, 0, len(users))
	for _, u := range users {
		if u.Email == self {
			continue
		}
		if len(response) == searchLimit {
			break
		}
		response = append(response, ContactResponse{UserID: u.Email, DisplayName: u.DisplayName})
	}

	c.JSON(http.StatusOK, response)
}
