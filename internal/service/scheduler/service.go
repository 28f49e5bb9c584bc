// Package scheduler runs the periodic maintenance sweeps: nightly badge
// evaluation across all active users and expiry of ended challenges.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ecocycle/ecocycle/internal/config"
	prommetrics "github.com/ecocycle/ecocycle/internal/metrics"
	"github.com/ecocycle/ecocycle/internal/service/gamification"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// Sweep names used in logs and metrics.
const (
	sweepBadges     = "badge_evaluation"
	sweepChallenges = "challenge_expiry"
)

// Service owns the cron runner for the maintenance sweeps.
type Service struct {
	config       *config.Config
	gamification *gamification.Service
	log          *logger.Logger
	cron         *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.Config, gamificationService *gamification.Service, log *logger.Logger) *Service {
	return &Service{
		config:       cfg,
		gamification: gamificationService,
		log:          log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.Scheduler.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.Scheduler.BadgeEvaluationTime != "" {
		_, err = s.cron.AddFunc(s.config.Scheduler.BadgeEvaluationTime, s.runBadgeEvaluation)
		if err != nil {
			return fmt.Errorf("failed to register badge evaluation job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.BadgeEvaluationTime).
			Msg("Badge evaluation job registered")
	}

	if s.config.Scheduler.ChallengeSweepTime != "" {
		_, err = s.cron.AddFunc(s.config.Scheduler.ChallengeSweepTime, s.runChallengeExpiry)
		if err != nil {
			return fmt.Errorf("failed to register challenge expiry job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.ChallengeSweepTime).
			Msg("Challenge expiry job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Scheduler.Timezone).
		Int("jobs", len(entries)).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runBadgeEvaluation evaluates badge criteria for every active user.
func (s *Service) runBadgeEvaluation() {
	start := time.Now()
	s.log.Info().Msg("Running badge evaluation sweep")

	awarded, err := s.gamification.EvaluateAllBadges()
	if err != nil {
		s.log.Error().Err(err).Msg("Badge evaluation sweep failed")
		prommetrics.RecordSweepRun(sweepBadges, "error")
		return
	}

	prommetrics.RecordSweepRun(sweepBadges, "success")
	s.log.Info().
		Int("badges_awarded", awarded).
		Dur("duration", time.Since(start)).
		Msg("Badge evaluation sweep completed")
}

// runChallengeExpiry deactivates challenges whose window has closed.
func (s *Service) runChallengeExpiry() {
	start := time.Now()
	s.log.Info().Msg("Running challenge expiry sweep")

	expired, err := s.gamification.ExpireChallenges()
	if err != nil {
		s.log.Error().Err(err).Msg("Challenge expiry sweep failed")
		prommetrics.RecordSweepRun(sweepChallenges, "error")
		return
	}

	prommetrics.RecordSweepRun(sweepChallenges, "success")
	s.log.Info().
		Int64("challenges_expired", expired).
		Dur("duration", time.Since(start)).
		Msg("Challenge expiry sweep completed")
}
