// Package lifecycle enforces device status transitions and triggers impact
// recording exactly once per device.
package lifecycle

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/errs"
	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/repository"
	"github.com/ecocycle/ecocycle/internal/service/gamification"
	"github.com/ecocycle/ecocycle/internal/service/valuation"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// Service drives the device lifecycle state machine.
type Service struct {
	db           *repository.DB
	deviceRepo   *repository.DeviceRepository
	impactRepo   *repository.ImpactRepository
	calculator   *valuation.Calculator
	gamification *gamification.Service
	log          *logger.Logger
}

// NewService creates a new lifecycle service.
func NewService(
	db *repository.DB,
	deviceRepo *repository.DeviceRepository,
	impactRepo *repository.ImpactRepository,
	calculator *valuation.Calculator,
	gamificationService *gamification.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		db:           db,
		deviceRepo:   deviceRepo,
		impactRepo:   impactRepo,
		calculator:   calculator,
		gamification: gamificationService,
		log:          log,
	}
}

// SubmitDevice values a new device and persists it in uploaded status.
func (s *Service) SubmitDevice(device *models.Device) error {
	if device.DeviceType == "" {
		return errs.Validation("device_type", "is required")
	}
	if device.WeightKg < 0 {
		return errs.Validation("weight_kg", "must not be negative")
	}

	// A nil age falls back to the valuation default of two years.
	estimate := s.calculator.Estimate(valuation.EstimateInput{
		DeviceType: device.DeviceType,
		Condition:  device.Condition,
		AgeYears:   device.AgeYears,
		WeightKg:   device.WeightKg,
	})

	device.Status = models.DeviceStatusUploaded
	device.EstimatedValue = estimate.EstimatedValue
	device.Recommendation = estimate.Recommendation

	if err := s.deviceRepo.Create(device); err != nil {
		return err
	}

	s.log.Info().
		Uint("device_id", device.ID).
		Str("device_type", device.DeviceType).
		Int("estimated_value", device.EstimatedValue).
		Str("recommendation", device.Recommendation).
		Msg("Device submitted")
	return nil
}

// Transition moves a device to the target status on behalf of an actor.
// Targets outside the allow-list are rejected; organizations may only move
// devices assigned to them, administrators may move any device. Entering
// donated or recycled with a known weight records impact exactly once.
func (s *Service) Transition(actor *models.User, deviceID uint, target string) (*models.Device, error) {
	if !models.IsValidDeviceStatus(target) {
		return nil, errs.Validation("status", fmt.Sprintf("unknown status %q", target))
	}

	device, err := s.deviceRepo.GetByID(deviceID)
	if err != nil {
		return nil, errs.NotFound("device", deviceID)
	}

	if err := authorize(actor, device); err != nil {
		return nil, err
	}

	var updated *models.Device
	err = s.db.Transaction(func(tx *gorm.DB) error {
		device, err := s.deviceRepo.GetByIDTx(tx, deviceID)
		if err != nil {
			return err
		}

		wasTerminal := models.IsTerminalDeviceStatus(device.Status)
		device.Status = target
		if err := s.deviceRepo.SaveTx(tx, device); err != nil {
			return err
		}

		if shouldRecordImpact(target, wasTerminal, device.WeightKg) {
			// Guard against double-crediting: a device that already reached
			// a terminal state, or already has a report, records nothing.
			exists, err := s.impactRepo.ExistsForDevice(tx, device.ID)
			if err != nil {
				return err
			}
			if !exists {
				if _, err := s.calculator.RecordImpact(tx, device); err != nil {
					return err
				}
				if err := s.gamification.AdvanceChallengesTx(tx, device.UserID, challengeTypeFor(target), 1); err != nil {
					return err
				}
			}
		}

		updated = device
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transition device %d to %s: %w", deviceID, target, err)
	}

	prommetrics.RecordDeviceTransition(target)
	s.log.Info().
		Uint("device_id", deviceID).
		Str("status", target).
		Uint("actor_id", actor.ID).
		Msg("Device transitioned")

	// Badge awards are individually atomic and idempotent, so evaluation runs
	// after the transition commits, once the new aggregates are visible.
	if models.IsTerminalDeviceStatus(target) {
		if _, err := s.gamification.EvaluateBadges(updated.UserID); err != nil {
			s.log.Error().Err(err).Uint("user_id", updated.UserID).Msg("Badge evaluation failed")
		}
	}

	return updated, nil
}

// authorize checks the actor's right to move the device.
func authorize(actor *models.User, device *models.Device) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleOrganization:
		if actor.OrganizationID != nil && device.OrganizationID != nil &&
			*actor.OrganizationID == *device.OrganizationID {
			return nil
		}
		return errs.NotFound("device", device.ID)
	default:
		return errs.NotFound("device", device.ID)
	}
}

// shouldRecordImpact reports whether entering target must record impact.
func shouldRecordImpact(target string, wasTerminal bool, weightKg float64) bool {
	if wasTerminal || weightKg <= 0 {
		return false
	}
	return target == models.DeviceStatusDonated || target == models.DeviceStatusRecycled
}

// challengeTypeFor maps a terminal status to the challenge type it advances.
func challengeTypeFor(target string) string {
	if target == models.DeviceStatusDonated {
		return models.ChallengeTypeDonation
	}
	return models.ChallengeTypeRecycling
}
