package gamification

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
)

// UserStats are the aggregates badge criteria are evaluated against.
type UserStats struct {
	DevicesRecycled  int64
	DevicesDonated   int64
	PickupsCompleted int64
	WaterSaved       float64
	CO2Saved         float64
	Points           int
	Level            int
	AccountAgeDays   int
}

// loadStats gathers the current aggregates for a user.
func (s *Service) loadStats(user *models.User) (*UserStats, error) {
	recycled, err := s.deviceRepo.CountByUserAndStatus(user.ID, models.DeviceStatusRecycled)
	if err != nil {
		return nil, err
	}
	donated, err := s.deviceRepo.CountByUserAndStatus(user.ID, models.DeviceStatusDonated)
	if err != nil {
		return nil, err
	}
	pickups, err := s.pickupRepo.CountCompletedByUser(user.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.impactRepo.SumByUser(user.ID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		DevicesRecycled:  recycled,
		DevicesDonated:   donated,
		PickupsCompleted: pickups,
		WaterSaved:       totals.WaterSaved,
		CO2Saved:         totals.CO2Saved,
		Points:           user.Points,
		Level:            user.Level,
		AccountAgeDays:   int(time.Since(user.CreatedAt).Hours() / 24),
	}, nil
}

// qualifies evaluates a badge's typed criteria against the stats. Each badge
// type reads its own threshold fields; any one met threshold qualifies.
func qualifies(badgeType string, criteria *models.BadgeCriteria, stats *UserStats) bool {
	switch badgeType {
	case models.BadgeTypeRecycling:
		return criteria.DevicesRequired != nil && stats.DevicesRecycled >= int64(*criteria.DevicesRequired)
	case models.BadgeTypeDonation:
		return criteria.DevicesRequired != nil && stats.DevicesDonated >= int64(*criteria.DevicesRequired)
	case models.BadgeTypePickups:
		return criteria.PickupsRequired != nil && stats.PickupsCompleted >= int64(*criteria.PickupsRequired)
	case models.BadgeTypeEnvironmental:
		if criteria.WaterRequired != nil && stats.WaterSaved >= *criteria.WaterRequired {
			return true
		}
		return criteria.CO2Required != nil && stats.CO2Saved >= *criteria.CO2Required
	case models.BadgeTypeAchievement:
		if criteria.PointsRequired != nil && stats.Points >= *criteria.PointsRequired {
			return true
		}
		return criteria.LevelRequired != nil && stats.Level >= *criteria.LevelRequired
	case models.BadgeTypeLoyalty:
		return criteria.DaysRequired != nil && stats.AccountAgeDays >= *criteria.DaysRequired
	default:
		return false
	}
}

// progressPercent computes how far the stats are toward a badge's thresholds,
// as an integer 0..100. With multiple thresholds the closest one counts.
func progressPercent(badgeType string, criteria *models.BadgeCriteria, stats *UserStats) int {
	best := 0.0
	ratio := func(current, required float64) {
		if required <= 0 {
			return
		}
		if r := current / required; r > best {
			best = r
		}
	}

	switch badgeType {
	case models.BadgeTypeRecycling:
		if criteria.DevicesRequired != nil {
			ratio(float64(stats.DevicesRecycled), float64(*criteria.DevicesRequired))
		}
	case models.BadgeTypeDonation:
		if criteria.DevicesRequired != nil {
			ratio(float64(stats.DevicesDonated), float64(*criteria.DevicesRequired))
		}
	case models.BadgeTypePickups:
		if criteria.PickupsRequired != nil {
			ratio(float64(stats.PickupsCompleted), float64(*criteria.PickupsRequired))
		}
	case models.BadgeTypeEnvironmental:
		if criteria.WaterRequired != nil {
			ratio(stats.WaterSaved, *criteria.WaterRequired)
		}
		if criteria.CO2Required != nil {
			ratio(stats.CO2Saved, *criteria.CO2Required)
		}
	case models.BadgeTypeAchievement:
		if criteria.PointsRequired != nil {
			ratio(float64(stats.Points), float64(*criteria.PointsRequired))
		}
		if criteria.LevelRequired != nil {
			ratio(float64(stats.Level), float64(*criteria.LevelRequired))
		}
	case models.BadgeTypeLoyalty:
		if criteria.DaysRequired != nil {
			ratio(float64(stats.AccountAgeDays), float64(*criteria.DaysRequired))
		}
	}

	percent := int(math.Min(100, math.Round(best*100)))
	return percent
}

// EvaluateBadges checks every badge the user has not yet earned and awards
// the qualifying ones. Each award (UserBadge insert + reward point credit) is
// one transaction; a concurrent duplicate insert no-ops without a reward.
func (s *Service) EvaluateBadges(userID uint) ([]models.Badge, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	stats, err := s.loadStats(user)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for user %d: %w", userID, err)
	}

	badges, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	var newlyEarned []models.Badge
	for _, badge := range badges {
		hasEarned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", userID).Uint("badge_id", badge.ID).
				Msg("Failed to check if user has badge")
			continue
		}
		if hasEarned {
			continue
		}

		criteria, err := badge.ParseCriteria()
		if err != nil {
			s.log.Error().Err(err).Str("badge", badge.Name).Msg("Failed to parse badge criteria")
			continue
		}
		if !qualifies(badge.Type, criteria, stats) {
			continue
		}

		if err := s.awardBadge(userID, &badge); err != nil {
			s.log.Error().Err(err).Uint("user_id", userID).Str("badge", badge.Name).
				Msg("Failed to award badge")
			continue
		}
		newlyEarned = append(newlyEarned, badge)
	}

	return newlyEarned, nil
}

// awardBadge inserts the earned-badge record and credits the reward in one
// transaction.
func (s *Service) awardBadge(userID uint, badge *models.Badge) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		awarded, err := s.badgeRepo.AwardTx(tx, userID, badge.ID)
		if err != nil {
			return err
		}
		if !awarded {
			// Lost the race to a concurrent evaluation; no double reward.
			return nil
		}

		if badge.RewardPoints > 0 {
			if err := s.CreditPointsTx(tx, userID, badge.RewardPoints, "badge"); err != nil {
				return err
			}
		}

		prommetrics.RecordBadgeAwarded(badge.Name)
		if count, err := s.badgeRepo.GetBadgeHoldersCount(badge.ID); err == nil {
			prommetrics.SetActiveBadgeHolders(badge.Name, int(count))
		}

		s.log.Info().
			Uint("user_id", userID).
			Str("badge", badge.Name).
			Int("reward", badge.RewardPoints).
			Msg("Badge awarded")
		return nil
	})
}

// BadgeProgress describes how close a user is to an unearned badge.
type BadgeProgress struct {
	Badge   models.Badge `json:"badge"`
	Percent int          `json:"percent"`
}

// GetBadgeProgress reports progress toward every badge the user has not yet
// earned. Badges whose type declares no matching criteria report 0%.
func (s *Service) GetBadgeProgress(userID uint) ([]BadgeProgress, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	stats, err := s.loadStats(user)
	if err != nil {
		return nil, err
	}

	badges, err := s.badgeRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	var progress []BadgeProgress
	for _, badge := range badges {
		hasEarned, err := s.badgeRepo.HasUserEarnedBadge(userID, badge.ID)
		if err != nil {
			return nil, err
		}
		if hasEarned {
			continue
		}

		criteria, err := badge.ParseCriteria()
		if err != nil {
			s.log.Warn().Err(err).Str("badge", badge.Name).Msg("Unparseable badge criteria")
			progress = append(progress, BadgeProgress{Badge: badge, Percent: 0})
			continue
		}

		progress = append(progress, BadgeProgress{
			Badge:   badge,
			Percent: progressPercent(badge.Type, criteria, stats),
		})
	}

	return progress, nil
}

// GetUserBadges retrieves the badges a user has earned.
func (s *Service) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	return s.badgeRepo.GetUserBadges(userID)
}

// GetBadgeCatalog retrieves all available badges.
func (s *Service) GetBadgeCatalog() ([]models.Badge, error) {
	return s.badgeRepo.GetAll()
}

// EvaluateAllBadges evaluates badges for every active user. Run from the
// nightly sweep; returns the number of badges awarded.
func (s *Service) EvaluateAllBadges() (int, error) {
	users, err := s.userRepo.ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	awarded := 0
	for _, user := range users {
		earned, err := s.EvaluateBadges(user.ID)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to evaluate badges")
			continue
		}
		awarded += len(earned)
	}
	return awarded, nil
}
