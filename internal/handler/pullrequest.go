package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
	"pr-reviewer/internal/domain"
)

type prService interface {
	CreatePR(ctx context.Context, prID, prName, authorID string) (domain.PullRequest, error)
	MergePR(ctx context.Context, prID string) (domain.PullRequest, error)
	ReassignReviewer(ctx context.Context, prID, oldUserID string) (domain.Reassignment, error)
}

// PRHandler handles pull request HTTP requests
type PRHandler struct {
	service prService
	logger  *zap.Logger
}

// NewPRHandler creates a new PR handler
func NewPRHandler(service prService, logger *zap.Logger) *PRHandler {
	return &PRHandler{
		service: service,
		logger:  logger,
	}
}

type CreatePRRequest struct {
	PullRequestID   string `json:"pull_request_id" validate:"required"`
	PullRequestName string `json:"pull_request_name" validate:"required"`
	AuthorID        string `json:"author_id" validate:"required"`
}

type MergePRRequest struct {
	PullRequestID string `json:"pull_request_id" validate:"required"`
}

type ReassignRequest struct {
	PullRequestID string `json:"pull_request_id" validate:"required"`
	OldUserID     string `json:"old_user_id" validate:"required"`
}

type PullRequestDTO struct {
	PullRequestID     string          `json:"pull_request_id"`
	PullRequestName   string          `json:"pull_request_name"`
	AuthorID          string          `json:"author_id"`
	Status            domain.PRStatus `json:"status"`
	AssignedReviewers []string        `json:"assigned_reviewers"`
	CreatedAt         *string         `json:"createdAt,omitempty"`
	MergedAt          *string         `json:"mergedAt,omitempty"`
}

type prResponse struct {
	middleware.Envelope
	PR PullRequestDTO `json:"pr"`
}

type reassignResponse struct {
	middleware.Envelope
	PR         PullRequestDTO `json:"pr"`
	ReplacedBy string         `json:"replaced_by"`
}

// CreatePR handles POST /pullRequest/create
func (h *PRHandler) CreatePR(w http.ResponseWriter, r *http.Request) {
	var req CreatePRRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	pr, err := h.service.CreatePR(r.Context(), req.PullRequestID, req.PullRequestName, req.AuthorID)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, prResponse{
		Envelope: middleware.OK,
		PR:       mapPRToDTO(pr),
	}, h.logger)
}

// MergePR handles POST /pullRequest/merge
func (h *PRHandler) MergePR(w http.ResponseWriter, r *http.Request) {
	var req MergePRRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	pr, err := h.service.MergePR(r.Context(), req.PullRequestID)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, prResponse{
		Envelope: middleware.OK,
		PR:       mapPRToDTO(pr),
	}, h.logger)
}

// ReassignReviewer handles POST /pullRequest/reassign
func (h *PRHandler) ReassignReviewer(w http.ResponseWriter, r *http.Request) {
	var req ReassignRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	result, err := h.service.ReassignReviewer(r.Context(), req.PullRequestID, req.OldUserID)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, reassignResponse{
		Envelope:   middleware.OK,
		PR:         mapPRToDTO(result.PullRequest),
		ReplacedBy: result.NewUserID,
	}, h.logger)
}

func mapPRToDTO(pr domain.PullRequest) PullRequestDTO {
	reviewers := pr.AssignedReviewers
	if reviewers == nil {
		reviewers = []string{}
	}

	dto := PullRequestDTO{
		PullRequestID:     pr.PullRequestID,
		PullRequestName:   pr.PullRequestName,
		AuthorID:          pr.AuthorID,
		Status:            pr.Status,
		AssignedReviewers: reviewers,
	}

	if !pr.CreatedAt.IsZero() {
		createdAt := pr.CreatedAt.UTC().Format(time.RFC3339)
		dto.CreatedAt = &createdAt
	}
	if pr.MergedAt != nil {
		mergedAt := pr.MergedAt.UTC().Format(time.RFC3339Nano)
		dto.MergedAt = &mergedAt
	}

	return dto
}
