package gamification

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/errs"
	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/models"
)

// JoinChallenge opts a user into a challenge. Rejected when the challenge
// does not exist, is inactive, has not started, has ended, or the user
// already joined.
func (s *Service) JoinChallenge(userID, challengeID uint) error {
	challenge, err := s.challengeRepo.GetByID(challengeID)
	if err != nil {
		return errs.NotFound("challenge", challengeID)
	}

	now := time.Now()
	if !challenge.Active {
		return errs.Conflict("challenge %q is not active", challenge.Name)
	}
	if now.Before(challenge.StartsAt) {
		return errs.Conflict("challenge %q has not started yet", challenge.Name)
	}
	if !now.Before(challenge.EndsAt) {
		return errs.Conflict("challenge %q has already ended", challenge.Name)
	}

	joined, err := s.challengeRepo.HasJoined(userID, challengeID)
	if err != nil {
		return fmt.Errorf("failed to check challenge membership: %w", err)
	}
	if joined {
		return errs.Conflict("already joined challenge %q", challenge.Name)
	}

	progress := &models.UserChallengeProgress{
		UserID:      userID,
		ChallengeID: challengeID,
		JoinedAt:    now,
	}
	if err := s.challengeRepo.CreateProgress(progress); err != nil {
		return err
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("challenge", challenge.Name).
		Msg("User joined challenge")
	return nil
}

// AdvanceChallengesTx adds delta to the user's progress in every joined,
// open-window, uncompleted challenge of the given type, within tx. Crossing
// the target latches completion and credits the reward exactly once; further
// advances on a completed row are no-ops because completed rows are not
// selected.
func (s *Service) AdvanceChallengesTx(tx *gorm.DB, userID uint, challengeType string, delta int) error {
	if delta <= 0 {
		return errs.Validation("delta", "must be positive")
	}

	now := time.Now()
	rows, err := s.challengeRepo.ListJoinedOpenByType(tx, userID, challengeType, now)
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]
		row.CurrentProgress += delta

		if row.CurrentProgress >= row.Challenge.TargetValue {
			row.Completed = true
			completedAt := now
			row.CompletedAt = &completedAt

			if row.Challenge.RewardPoints > 0 {
				if err := s.CreditPointsTx(tx, userID, row.Challenge.RewardPoints, "challenge"); err != nil {
					return err
				}
			}

			prommetrics.RecordChallengeCompleted(challengeType)
			s.log.Info().
				Uint("user_id", userID).
				Str("challenge", row.Challenge.Name).
				Int("reward", row.Challenge.RewardPoints).
				Msg("Challenge completed")
		}

		if err := s.challengeRepo.SaveProgressTx(tx, row); err != nil {
			return err
		}
	}

	return nil
}

// AdvanceChallenges advances challenges in its own transaction.
func (s *Service) AdvanceChallenges(userID uint, challengeType string, delta int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.AdvanceChallengesTx(tx, userID, challengeType, delta)
	})
}

// GetChallengeProgress retrieves all of a user's challenge progress rows.
func (s *Service) GetChallengeProgress(userID uint) ([]models.UserChallengeProgress, error) {
	return s.challengeRepo.ListProgressByUser(userID)
}

// ExpireChallenges marks challenges whose window has closed as inactive.
// Run from the scheduled sweep.
func (s *Service) ExpireChallenges() (int64, error) {
	return s.challengeRepo.DeactivateEnded(time.Now())
}
