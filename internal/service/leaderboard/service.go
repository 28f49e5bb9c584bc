// Package leaderboard provides ranked point standings over configurable
// time windows, with a Redis read-through cache in front of the database.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecocycle/ecocycle/internal/cache"
	"github.com/ecocycle/ecocycle/internal/config"
	"github.com/ecocycle/ecocycle/internal/errs"
	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/repository"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// Leaderboard periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "all_time"
)

// UserRepository is the user data surface the leaderboard needs.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	CountActiveWithMorePoints(points int, since *time.Time) (int64, error)
	ListTopByPoints(since *time.Time, offset, limit int) ([]models.User, error)
}

// Entry is a single ranked row.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
}

// Page is one leaderboard page plus its paging context.
type Page struct {
	Period  string  `json:"period"`
	Page    int     `json:"page"`
	Entries []Entry `json:"entries"`
}

// Service builds leaderboard pages and per-user ranks.
type Service struct {
	userRepo UserRepository
	cache    cache.Cache
	cfg      *config.LeaderboardConfig
	log      *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(userRepo *repository.UserRepository, c cache.Cache, cfg *config.LeaderboardConfig, log *logger.Logger) *Service {
	return &Service{userRepo: userRepo, cache: c, cfg: cfg, log: log}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(userRepo UserRepository, c cache.Cache, cfg *config.LeaderboardConfig, log *logger.Logger) *Service {
	return &Service{userRepo: userRepo, cache: c, cfg: cfg, log: log}
}

// Top returns one page of the leaderboard for a period. Pages are 1-based.
// Results come from the cache when fresh; a miss falls through to the
// database and repopulates the cache for the configured TTL.
func (s *Service) Top(ctx context.Context, period string, page int) (*Page, error) {
	since, err := periodStart(period, time.Now())
	if err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if s.cfg.MaxPage > 0 && page > s.cfg.MaxPage {
		return nil, errs.Validation("page", fmt.Sprintf("must not exceed %d", s.cfg.MaxPage))
	}

	key := fmt.Sprintf("leaderboard:%s:%d", period, page)
	if cached, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
	} else if cached != "" {
		var result Page
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding unreadable leaderboard cache entry")
	}

	offset := (page - 1) * s.cfg.PageSize
	users, err := s.userRepo.ListTopByPoints(since, offset, s.cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(users))
	for i, user := range users {
		entries = append(entries, Entry{
			Rank:     offset + i + 1,
			UserID:   user.ID,
			Username: user.Username,
			Points:   user.Points,
			Level:    user.Level,
		})
	}

	result := &Page{Period: period, Page: page, Entries: entries}

	if payload, err := json.Marshal(result); err == nil {
		ttl := time.Duration(s.cfg.CacheTTL) * time.Second
		if err := s.cache.Set(ctx, key, string(payload), ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache write failed")
		}
	}

	return result, nil
}

// Rank returns the user's 1-based rank for a period. Users on equal points
// share a rank: each user ranks one below the count of users strictly ahead.
func (s *Service) Rank(ctx context.Context, userID uint, period string) (int, error) {
	since, err := periodStart(period, time.Now())
	if err != nil {
		return 0, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, errs.NotFound("user", userID)
	}

	ahead, err := s.userRepo.CountActiveWithMorePoints(user.Points, since)
	if err != nil {
		return 0, fmt.Errorf("failed to rank user %d: %w", userID, err)
	}
	return int(ahead) + 1, nil
}

// periodStart returns the window start for a period, or nil for all_time.
func periodStart(period string, now time.Time) (*time.Time, error) {
	switch period {
	case PeriodWeekly:
		since := now.AddDate(0, 0, -7)
		return &since, nil
	case PeriodMonthly:
		since := now.AddDate(0, -1, 0)
		return &since, nil
	case PeriodAllTime, "":
		return nil, nil
	default:
		return nil, errs.Validation("period", fmt.Sprintf("unknown period %q", period))
	}
}
