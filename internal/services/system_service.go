package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/localmandi/storefront/internal/domain"
	"github.com/localmandi/storefront/internal/repositories"
)

var errSystemHealthRequired = errors.New("system: health repository is required")

// ErrSystemUnavailable indicates health collection itself failed.
var ErrSystemUnavailable = errors.New("system: unavailable")

// SystemServiceDeps wires the health probes.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
}

// SystemService reports process readiness from dependency probes.
type SystemService struct {
	health repositories.HealthRepository
}

// NewSystemService constructs the readiness reporter.
func NewSystemService(deps SystemServiceDeps) (*SystemService, error) {
	if deps.Health == nil {
		return nil, errSystemHealthRequired
	}
	return &SystemService{health: deps.Health}, nil
}

// Status collects a readiness report across all registered dependencies.
func (s *SystemService) Status(ctx context.Context) (domain.HealthReport, error) {
	report, err := s.health.Collect(ctx)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("%w: %v", ErrSystemUnavailable, err)
	}
	return report, nil
}
