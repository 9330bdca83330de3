package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
	"pr-reviewer/internal/domain"
)

type statsService interface {
	GetStats(ctx context.Context) (domain.Stats, error)
}

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	service statsService
	logger  *zap.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service statsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger,
	}
}

type UserAssignmentDTO struct {
	UserID          string `json:"user_id"`
	AssignmentCount int    `json:"assignment_count"`
}

type PRAssignmentDTO struct {
	PullRequestID  string `json:"pull_request_id"`
	ReviewersCount int    `json:"reviewers_count"`
}

type StatsDTO struct {
	TotalUsers      int                 `json:"total_users"`
	TotalTeams      int                 `json:"total_teams"`
	TotalPRs        int                 `json:"total_prs"`
	OpenPRs         int                 `json:"open_prs"`
	MergedPRs       int                 `json:"merged_prs"`
	UserAssignments []UserAssignmentDTO `json:"user_assignments"`
	PRAssignments   []PRAssignmentDTO   `json:"pr_assignments"`
}

type statsResponse struct {
	middleware.Envelope
	Stats StatsDTO `json:"stats"`
}

// GetStats handles GET /stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	dto := StatsDTO{
		TotalUsers:      stats.TotalUsers,
		TotalTeams:      stats.TotalTeams,
		TotalPRs:        stats.TotalPRs,
		OpenPRs:         stats.OpenPRs,
		MergedPRs:       stats.MergedPRs,
		UserAssignments: make([]UserAssignmentDTO, 0, len(stats.UserAssignments)),
		PRAssignments:   make([]PRAssignmentDTO, 0, len(stats.PRAssignments)),
	}
	for _, ua := range stats.UserAssignments {
		dto.UserAssignments = append(dto.UserAssignments, UserAssignmentDTO(ua))
	}
	for _, pa := range stats.PRAssignments {
		dto.PRAssignments = append(dto.PRAssignments, PRAssignmentDTO(pa))
	}

	middleware.WriteJSON(w, http.StatusOK, statsResponse{
		Envelope: middleware.OK,
		Stats:    dto,
	}, h.logger)
}
