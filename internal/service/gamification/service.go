// Package gamification drives points accrual, levels, badges and challenges.
package gamification

import (
	"fmt"
	"math"

	"gorm.io/gorm"

	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/repository"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// levelBonusPerLevel is the one-time bonus credited on level-up, multiplied
// by the new level.
const levelBonusPerLevel = 50

// Service evaluates the reward rules over user aggregates.
type Service struct {
	db            *repository.DB
	userRepo      *repository.UserRepository
	deviceRepo    *repository.DeviceRepository
	pickupRepo    *repository.PickupRepository
	impactRepo    *repository.ImpactRepository
	badgeRepo     *repository.BadgeRepository
	challengeRepo *repository.ChallengeRepository
	log           *logger.Logger
}

// NewService creates a new gamification service.
func NewService(
	db *repository.DB,
	userRepo *repository.UserRepository,
	deviceRepo *repository.DeviceRepository,
	pickupRepo *repository.PickupRepository,
	impactRepo *repository.ImpactRepository,
	badgeRepo *repository.BadgeRepository,
	challengeRepo *repository.ChallengeRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		db:            db,
		userRepo:      userRepo,
		deviceRepo:    deviceRepo,
		pickupRepo:    pickupRepo,
		impactRepo:    impactRepo,
		badgeRepo:     badgeRepo,
		challengeRepo: challengeRepo,
		log:           log,
	}
}

// LevelForPoints derives the level from a point total.
func LevelForPoints(points int) int {
	if points <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(float64(points) / 100)))
}

// NextLevelPoints returns the point total required to reach the next level.
func NextLevelPoints(level int) int {
	next := level + 1
	return 100 * next * next
}

// CreditPointsTx adds points to a user under a row lock inside tx and
// recomputes the level. Crossing a level boundary credits a one-time bonus of
// newLevel*50 points; the bonus itself is not re-checked against the next
// boundary within the same credit.
func (s *Service) CreditPointsTx(tx *gorm.DB, userID uint, points int, reason string) error {
	user, err := s.userRepo.GetForUpdate(tx, userID)
	if err != nil {
		return err
	}

	user.Points += points
	if user.Points < 0 {
		user.Points = 0
	}

	newLevel := LevelForPoints(user.Points)
	if newLevel > user.Level {
		bonus := newLevel * levelBonusPerLevel
		user.Points += bonus
		user.Level = newLevel

		prommetrics.RecordPointsCredited("level_bonus", bonus)
		s.log.Info().
			Uint("user_id", userID).
			Int("level", newLevel).
			Int("bonus", bonus).
			Msg("User leveled up")
	}

	if err := s.userRepo.SaveTx(tx, user); err != nil {
		return fmt.Errorf("failed to credit %d points to user %d: %w", points, userID, err)
	}

	// Counters reject negative values; administrative deductions are not
	// recorded as credits.
	if points > 0 {
		prommetrics.RecordPointsCredited(reason, points)
	}
	return nil
}

// CreditPoints credits points in its own transaction.
func (s *Service) CreditPoints(userID uint, points int, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.CreditPointsTx(tx, userID, points, reason)
	})
}

// Snapshot is the gamification state exposed to collaborators.
type Snapshot struct {
	UserID          uint               `json:"user_id"`
	Points          int                `json:"points"`
	Level           int                `json:"level"`
	Rank            int                `json:"rank"`
	NextLevelPoints int                `json:"next_level_points"`
	Badges          []models.UserBadge `json:"badges"`
}

// GetSnapshot assembles a user's gamification snapshot. Rank is all-time:
// 1 + the number of active users with strictly more points.
func (s *Service) GetSnapshot(userID uint) (*Snapshot, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	ahead, err := s.userRepo.CountActiveWithMorePoints(user.Points, nil)
	if err != nil {
		return nil, err
	}

	badges, err := s.badgeRepo.GetUserBadges(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges for user %d: %w", userID, err)
	}

	return &Snapshot{
		UserID:          userID,
		Points:          user.Points,
		Level:           user.Level,
		Rank:            int(ahead) + 1,
		NextLevelPoints: NextLevelPoints(user.Level),
		Badges:          badges,
	}, nil
}
