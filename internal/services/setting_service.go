package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vgreport/vgdraft/internal/database"
	"github.com/vgreport/vgdraft/internal/report"
	"github.com/vgreport/vgdraft/internal/validation"
)

// Setting keys used by the engine.
const (
	SettingActivePeriod    = "report.period"
	SettingActiveRole      = "user.role"
	SettingTier1Validation = "validation.tier1"
)

// SettingService reads and writes typed application settings.
type SettingService struct {
	settings *database.SettingRepository
	periods  *database.PeriodRepository
}

// NewSettingService creates a new SettingService.
func NewSettingService(dbCtx *database.Context) *SettingService {
	return &SettingService{
		settings: database.NewSettingRepository(dbCtx),
		periods:  database.NewPeriodRepository(dbCtx),
	}
}

// Get unmarshals the value stored under key into out. Returns ErrNotFound
// when the key is unset.
func (s *SettingService) Get(ctx context.Context, key string, out any) error {
	raw, err := s.settings.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it under key.
func (s *SettingService) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	if err := s.settings.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// ActivePeriod returns the persisted reporting period, defaulting to the
// February report when none is stored.
func (s *SettingService) ActivePeriod(ctx context.Context) (report.Period, error) {
	var stored report.Period
	err := s.Get(ctx, SettingActivePeriod, &stored)
	if err == ErrNotFound {
		return report.PeriodFebruary, nil
	}
	if err != nil {
		return "", err
	}
	if !report.ValidPeriod(stored) {
		return report.PeriodFebruary, nil
	}
	return stored, nil
}

// SetActivePeriod persists the reporting period and mirrors it into the
// report_periods table.
func (s *SettingService) SetActivePeriod(ctx context.Context, period report.Period) error {
	if !report.ValidPeriod(period) {
		return fmt.Errorf("invalid reporting period: %s", period)
	}
	if err := s.Set(ctx, SettingActivePeriod, period); err != nil {
		return err
	}
	if err := s.periods.SetActive(ctx, database.ReportPeriodRecord{ID: string(period)}); err != nil {
		return fmt.Errorf("failed to activate report period: %w", err)
	}
	return nil
}

// ActiveRole returns the persisted user role, defaulting to teacher.
func (s *SettingService) ActiveRole(ctx context.Context) (report.Role, error) {
	var stored report.Role
	err := s.Get(ctx, SettingActiveRole, &stored)
	if err == ErrNotFound {
		return report.RoleTeacher, nil
	}
	if err != nil {
		return "", err
	}
	if !report.ValidRole(stored) {
		return report.RoleTeacher, nil
	}
	return stored, nil
}

// SetActiveRole persists the user role.
func (s *SettingService) SetActiveRole(ctx context.Context, role report.Role) error {
	if !report.ValidRole(role) {
		return fmt.Errorf("invalid role: %s", role)
	}
	return s.Set(ctx, SettingActiveRole, role)
}

// ValidationConfig returns the stored heuristics thresholds, or the defaults
// when none are stored.
func (s *SettingService) ValidationConfig(ctx context.Context) (validation.Config, error) {
	var cfg validation.Config
	err := s.Get(ctx, SettingTier1Validation, &cfg)
	if err == ErrNotFound {
		return validation.DefaultConfig(), nil
	}
	if err != nil {
		return validation.Config{}, err
	}
	return cfg, nil
}

// SetValidationConfig persists the heuristics thresholds.
func (s *SettingService) SetValidationConfig(ctx context.Context, cfg validation.Config) error {
	return s.Set(ctx, SettingTier1Validation, cfg)
}
