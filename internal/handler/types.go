package handler

import (
	"context"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
)

// * WrappedService is what the handlers need from the lookup orchestrator
type WrappedService interface {
	ResolveUser(ctx context.Context, rawUsername string) (*service.Resolution, error)
	AverageStats(ctx context.Context) (models.AverageStats, error)
	CountUsers(ctx context.Context) (int, error)
	Outcomes() service.OutcomeCounts
}

type WarmupPublisher interface {
	PublishWarmup(ctx context.Context, username string) error
}

type APIResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type CountResponse struct {
	Count    int                   `json:"count"`
	Outcomes service.OutcomeCounts `json:"outcomes"`
}

type WarmupResponse struct {
	Username string `json:"username"`
	Queued   bool   `json:"queued"`
}
