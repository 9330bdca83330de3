package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
	"pr-reviewer/internal/domain"
)

type userService interface {
	SetIsActive(ctx context.Context, userID string, isActive bool) (domain.User, error)
	GetPRsByReviewer(ctx context.Context, userID string) ([]domain.PullRequest, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service userService
	logger  *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service userService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

type SetIsActiveRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	IsActive *bool  `json:"is_active" validate:"required"`
}

// UserDTO carries the team of the user's first active membership; null
// when there is none.
type UserDTO struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	TeamName *string `json:"team_name"`
	IsActive bool    `json:"is_active"`
}

type PullRequestShort struct {
	PullRequestID   string          `json:"pull_request_id"`
	PullRequestName string          `json:"pull_request_name"`
	AuthorID        string          `json:"author_id"`
	Status          domain.PRStatus `json:"status"`
}

type userResponse struct {
	middleware.Envelope
	User UserDTO `json:"user"`
}

type getReviewResponse struct {
	middleware.Envelope
	UserID       string             `json:"user_id"`
	PullRequests []PullRequestShort `json:"pull_requests"`
}

// SetIsActive handles POST /users/setIsActive
func (h *UserHandler) SetIsActive(w http.ResponseWriter, r *http.Request) {
	var req SetIsActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	user, err := h.service.SetIsActive(r.Context(), req.UserID, *req.IsActive)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, userResponse{
		Envelope: middleware.OK,
		User:     mapUserToDTO(user),
	}, h.logger)
}

// GetReview handles GET /users/getReview?user_id=...
func (h *UserHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	userID, err := requiredQuery(r, "user_id")
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	prs, err := h.service.GetPRsByReviewer(r.Context(), userID)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	result := make([]PullRequestShort, len(prs))
	for i, pr := range prs {
		result[i] = PullRequestShort{
			PullRequestID:   pr.PullRequestID,
			PullRequestName: pr.PullRequestName,
			AuthorID:        pr.AuthorID,
			Status:          pr.Status,
		}
	}

	middleware.WriteJSON(w, http.StatusOK, getReviewResponse{
		Envelope:     middleware.OK,
		UserID:       userID,
		PullRequests: result,
	}, h.logger)
}

func mapUserToDTO(user domain.User) UserDTO {
	dto := UserDTO{
		UserID:   user.UserID,
		Username: user.Username,
		IsActive: user.IsActive,
	}
	if user.TeamName != "" {
		teamName := user.TeamName
		dto.TeamName = &teamName
	}
	return dto
}
