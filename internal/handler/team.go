package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pr-reviewer/internal/app/middleware"
	"pr-reviewer/internal/domain"
)

type teamService interface {
	CreateTeam(ctx context.Context, teamName string, members []domain.User) (domain.Team, error)
	GetTeam(ctx context.Context, teamName string) (domain.Team, error)
}

// TeamHandler handles team-related HTTP requests
type TeamHandler struct {
	service teamService
	logger  *zap.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(service teamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		service: service,
		logger:  logger,
	}
}

type TeamMemberRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	IsActive *bool  `json:"is_active" validate:"required"`
}

type AddTeamRequest struct {
	TeamName string              `json:"team_name" validate:"required"`
	Members  []TeamMemberRequest `json:"members" validate:"dive"`
}

type TeamMemberDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TeamName string `json:"team_name"`
	IsActive bool   `json:"is_active"`
}

type TeamDTO struct {
	TeamName string          `json:"team_name"`
	Members  []TeamMemberDTO `json:"members"`
}

type teamResponse struct {
	middleware.Envelope
	Team TeamDTO `json:"team"`
}

// AddTeam handles POST /team/add
func (h *TeamHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	var req AddTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	members := make([]domain.User, len(req.Members))
	for i, m := range req.Members {
		members[i] = domain.User{
			UserID:   m.UserID,
			Username: m.Username,
			IsActive: *m.IsActive,
		}
	}

	team, err := h.service.CreateTeam(r.Context(), req.TeamName, members)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, teamResponse{
		Envelope: middleware.OK,
		Team:     mapTeamToDTO(team),
	}, h.logger)
}

// GetTeam handles GET /team/get?team_name=...
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamName, err := requiredQuery(r, "team_name")
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	team, err := h.service.GetTeam(r.Context(), teamName)
	if err != nil {
		middleware.WriteErrorResponse(w, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, teamResponse{
		Envelope: middleware.OK,
		Team:     mapTeamToDTO(team),
	}, h.logger)
}

func mapTeamToDTO(team domain.Team) TeamDTO {
	members := make([]TeamMemberDTO, len(team.Members))
	for i, m := range team.Members {
		members[i] = TeamMemberDTO{
			UserID:   m.UserID,
			Username: m.Username,
			TeamName: m.TeamName,
			IsActive: m.IsActive,
		}
	}
	return TeamDTO{TeamName: team.TeamName, Members: members}
}
