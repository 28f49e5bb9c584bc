// Package pickups schedules device pickups against organization daily
// capacity and drives the pickup status machine.
package pickups

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/config"
	"github.com/ecocycle/ecocycle/internal/errs"
	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/repository"
	"github.com/ecocycle/ecocycle/internal/service/gamification"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// Service handles pickup scheduling, lifecycle and rating.
type Service struct {
	db           *repository.DB
	pickupRepo   *repository.PickupRepository
	deviceRepo   *repository.DeviceRepository
	orgRepo      *repository.OrganizationRepository
	gamification *gamification.Service
	cfg          *config.PickupsConfig
	log          *logger.Logger
}

// NewService creates a new pickups service.
func NewService(
	db *repository.DB,
	pickupRepo *repository.PickupRepository,
	deviceRepo *repository.DeviceRepository,
	orgRepo *repository.OrganizationRepository,
	gamificationService *gamification.Service,
	cfg *config.PickupsConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		db:           db,
		pickupRepo:   pickupRepo,
		deviceRepo:   deviceRepo,
		orgRepo:      orgRepo,
		gamification: gamificationService,
		cfg:          cfg,
		log:          log,
	}
}

// ScheduleResult is returned to collaborators on successful scheduling.
type ScheduleResult struct {
	PickupID      uint    `json:"pickup_id"`
	Status        string  `json:"status"`
	DeviceCount   int     `json:"device_count"`
	TotalWeightKg float64 `json:"total_weight_kg"`
}

// Schedule books a pickup for the user's devices with an organization on a
// date. The capacity check runs under a FOR UPDATE lock on the organization
// row, so concurrent requests for the same (organization, date) serialize
// and the daily capacity is never exceeded. Pickup creation, device linking
// and device status updates are one all-or-nothing transaction.
func (s *Service) Schedule(userID uint, deviceIDs []uint, orgID uint, date time.Time, address string) (*ScheduleResult, error) {
	if len(deviceIDs) == 0 {
		return nil, errs.Validation("device_ids", "at least one device is required")
	}
	if date.IsZero() {
		return nil, errs.Validation("pickup_date", "is required")
	}
	day := truncateToDay(date)

	var result *ScheduleResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		org, err := s.orgRepo.GetForUpdate(tx, orgID)
		if err != nil {
			return errs.NotFound("organization", orgID)
		}
		if !org.IsOperational() {
			return errs.Conflict("organization %q is not accepting pickups", org.Name)
		}

		devices, err := s.deviceRepo.ListByIDsAndUser(tx, deviceIDs, userID)
		if err != nil {
			return err
		}
		if len(devices) != len(deviceIDs) {
			return errs.Validation("device_ids", "one or more devices do not exist or do not belong to the user")
		}

		var totalWeight float64
		for i := range devices {
			device := &devices[i]
			if device.Status != models.DeviceStatusUploaded && device.Status != models.DeviceStatusPickupScheduled {
				return errs.Conflict("device %d is not available for pickup", device.ID)
			}
			open, err := s.pickupRepo.CountOpenForDevice(tx, device.ID)
			if err != nil {
				return err
			}
			if open > 0 {
				return errs.Conflict("device %d is already part of an open pickup", device.ID)
			}
			totalWeight += device.WeightKg
		}

		count, err := s.pickupRepo.CountActiveForDate(tx, orgID, day)
		if err != nil {
			return err
		}
		if count >= int64(org.CapacityPerDay) {
			prommetrics.RecordCapacityRejection()
			return errs.Conflict("organization capacity reached for %s", day.Format("2006-01-02"))
		}

		pickup := &models.Pickup{
			UserID:         userID,
			OrganizationID: orgID,
			PickupDate:     day,
			Address:        address,
			Status:         models.PickupStatusScheduled,
			TotalDevices:   len(devices),
			TotalWeightKg:  totalWeight,
		}
		if err := s.pickupRepo.CreateTx(tx, pickup); err != nil {
			return err
		}

		for i := range devices {
			device := &devices[i]
			if err := s.pickupRepo.LinkDeviceTx(tx, pickup.ID, device.ID); err != nil {
				return err
			}
			device.Status = models.DeviceStatusPickupScheduled
			device.OrganizationID = &orgID
			if err := s.deviceRepo.SaveTx(tx, device); err != nil {
				return err
			}
		}

		result = &ScheduleResult{
			PickupID:      pickup.ID,
			Status:        pickup.Status,
			DeviceCount:   pickup.TotalDevices,
			TotalWeightKg: pickup.TotalWeightKg,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prommetrics.RecordPickupScheduled(models.PickupStatusScheduled)
	s.log.Info().
		Uint("pickup_id", result.PickupID).
		Uint("user_id", userID).
		Uint("organization_id", orgID).
		Int("devices", result.DeviceCount).
		Msg("Pickup scheduled")
	return result, nil
}

// Confirm moves a pickup from scheduled (or rescheduled) to confirmed.
func (s *Service) Confirm(pickupID uint) error {
	return s.advance(pickupID, models.PickupStatusConfirmed,
		models.PickupStatusScheduled, models.PickupStatusRescheduled)
}

// Start moves a confirmed pickup to in_progress.
func (s *Service) Start(pickupID uint) error {
	return s.advance(pickupID, models.PickupStatusInProgress, models.PickupStatusConfirmed)
}

// advance moves a pickup to target when its current status is one of from.
func (s *Service) advance(pickupID uint, target string, from ...string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		pickup, err := s.pickupRepo.GetByIDTx(tx, pickupID)
		if err != nil {
			return errs.NotFound("pickup", pickupID)
		}
		if !statusIn(pickup.Status, from...) {
			return errs.Conflict("pickup %d cannot move from %s to %s", pickupID, pickup.Status, target)
		}
		pickup.Status = target
		return s.pickupRepo.SaveTx(tx, pickup)
	})
}

// Complete finishes an in_progress pickup: stamps the actual pickup time and
// moves every linked device to picked_up, in one transaction.
func (s *Service) Complete(pickupID uint) error {
	var userID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pickup, err := s.pickupRepo.GetByIDTx(tx, pickupID)
		if err != nil {
			return errs.NotFound("pickup", pickupID)
		}
		if pickup.Status != models.PickupStatusInProgress {
			return errs.Conflict("pickup %d cannot be completed from %s", pickupID, pickup.Status)
		}

		now := time.Now()
		pickup.Status = models.PickupStatusCompleted
		pickup.ActualPickupAt = &now
		if err := s.pickupRepo.SaveTx(tx, pickup); err != nil {
			return err
		}

		devices, err := s.deviceRepo.ListByPickup(tx, pickupID)
		if err != nil {
			return err
		}
		for i := range devices {
			devices[i].Status = models.DeviceStatusPickedUp
			if err := s.deviceRepo.SaveTx(tx, &devices[i]); err != nil {
				return err
			}
		}

		if err := s.gamification.AdvanceChallengesTx(tx, pickup.UserID, models.ChallengeTypePickups, 1); err != nil {
			return err
		}

		userID = pickup.UserID
		return nil
	})
	if err != nil {
		return err
	}

	prommetrics.RecordPickupScheduled(models.PickupStatusCompleted)
	s.log.Info().Uint("pickup_id", pickupID).Msg("Pickup completed")

	if _, err := s.gamification.EvaluateBadges(userID); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Badge evaluation failed")
	}
	return nil
}

// Cancel cancels a pickup. Legal only from scheduled or confirmed; every
// linked device is reset to uploaded with its organization cleared, in the
// same transaction as the pickup's own status write.
func (s *Service) Cancel(pickupID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pickup, err := s.pickupRepo.GetByIDTx(tx, pickupID)
		if err != nil {
			return errs.NotFound("pickup", pickupID)
		}
		if !statusIn(pickup.Status, models.PickupStatusScheduled, models.PickupStatusConfirmed) {
			return errs.Conflict("pickup %d cannot be cancelled from %s", pickupID, pickup.Status)
		}

		pickup.Status = models.PickupStatusCancelled
		if err := s.pickupRepo.SaveTx(tx, pickup); err != nil {
			return err
		}

		devices, err := s.deviceRepo.ListByPickup(tx, pickupID)
		if err != nil {
			return err
		}
		for i := range devices {
			devices[i].Status = models.DeviceStatusUploaded
			devices[i].OrganizationID = nil
			if err := s.deviceRepo.SaveTx(tx, &devices[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	prommetrics.RecordPickupScheduled(models.PickupStatusCancelled)
	s.log.Info().Uint("pickup_id", pickupID).Msg("Pickup cancelled")
	return nil
}

// Reschedule moves a non-terminal pickup to a new date. The new date's
// capacity is checked under the organization row lock before the move.
func (s *Service) Reschedule(pickupID uint, newDate time.Time) error {
	if newDate.IsZero() {
		return errs.Validation("pickup_date", "is required")
	}
	day := truncateToDay(newDate)

	return s.db.Transaction(func(tx *gorm.DB) error {
		pickup, err := s.pickupRepo.GetByIDTx(tx, pickupID)
		if err != nil {
			return errs.NotFound("pickup", pickupID)
		}
		if pickup.IsTerminal() {
			return errs.Conflict("pickup %d cannot be rescheduled from %s", pickupID, pickup.Status)
		}

		org, err := s.orgRepo.GetForUpdate(tx, pickup.OrganizationID)
		if err != nil {
			return err
		}
		count, err := s.pickupRepo.CountActiveForDate(tx, pickup.OrganizationID, day)
		if err != nil {
			return err
		}
		if count >= int64(org.CapacityPerDay) {
			prommetrics.RecordCapacityRejection()
			return errs.Conflict("organization capacity reached for %s", day.Format("2006-01-02"))
		}

		pickup.PickupDate = day
		pickup.Status = models.PickupStatusRescheduled
		return s.pickupRepo.SaveTx(tx, pickup)
	})
}

// Rate records the requesting user's 1..5 rating for a completed pickup,
// exactly once, and recomputes the organization's running average under a
// row lock in the same transaction.
func (s *Service) Rate(pickupID, userID uint, score int) error {
	if score < 1 || score > 5 {
		return errs.Validation("rating", "must be between 1 and 5")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pickup, err := s.pickupRepo.GetByIDTx(tx, pickupID)
		if err != nil {
			return errs.NotFound("pickup", pickupID)
		}
		if pickup.UserID != userID {
			return errs.NotFound("pickup", pickupID)
		}
		if pickup.Status != models.PickupStatusCompleted {
			return errs.Conflict("pickup %d is not completed", pickupID)
		}
		if pickup.Rating != nil {
			return errs.Conflict("pickup %d is already rated", pickupID)
		}

		org, err := s.orgRepo.GetForUpdate(tx, pickup.OrganizationID)
		if err != nil {
			return err
		}

		pickup.Rating = &score
		if err := s.pickupRepo.SaveTx(tx, pickup); err != nil {
			return err
		}

		oldCount := org.TotalReviews
		org.Rating = (org.Rating*float64(oldCount) + float64(score)) / float64(oldCount+1)
		org.TotalReviews = oldCount + 1
		return s.orgRepo.SaveTx(tx, org)
	})
	if err != nil {
		return err
	}

	prommetrics.ObservePickupRating(score)
	s.log.Info().Uint("pickup_id", pickupID).Int("rating", score).Msg("Pickup rated")
	return nil
}

// FindNearest returns verified, active organizations within radiusKm of the
// coordinates, optionally filtered by service overlap, nearest first.
func (s *Service) FindNearest(lat, lon, radiusKm float64, services []string, limit int) ([]Match, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errs.Validation("coordinates", "latitude/longitude out of range")
	}
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	if limit <= 0 || limit > s.cfg.MaxMatches {
		limit = s.cfg.MaxMatches
	}

	orgs, err := s.orgRepo.ListOperational()
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby organizations: %w", err)
	}

	return rankByDistance(orgs, lat, lon, radiusKm, services, limit), nil
}

func statusIn(status string, candidates ...string) bool {
	for _, c := range candidates {
		if status == c {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
