package gamification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle/internal/models"
	"github.com/ecocycle/ecocycle/internal/repository"
	"github.com/ecocycle/ecocycle/pkg/logger"
)

// setupService builds the gamification service over an in-memory database.
func setupService(t *testing.T) (*Service, *repository.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	db := &repository.DB{DB: gdb}
	require.NoError(t, db.AutoMigrate())

	log := logger.New("error", "json", "stdout")
	svc := NewService(
		db,
		repository.NewUserRepository(db),
		repository.NewDeviceRepository(db),
		repository.NewPickupRepository(db),
		repository.NewImpactRepository(db),
		repository.NewBadgeRepository(db),
		repository.NewChallengeRepository(db),
		log,
	)
	return svc, db
}

func createUser(t *testing.T, db *repository.DB, username string, points, level int) *models.User {
	t.Helper()

	user := &models.User{Username: username, Points: points, Level: level, Active: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBadge(t *testing.T, db *repository.DB, name, badgeType string, reward int, criteria string) *models.Badge {
	t.Helper()

	badge := &models.Badge{
		Name:         name,
		Type:         badgeType,
		RewardPoints: reward,
		Criteria:     json.RawMessage(criteria),
	}
	require.NoError(t, db.Create(badge).Error)
	return badge
}

func reloadUser(t *testing.T, db *repository.DB, id uint) *models.User {
	t.Helper()

	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func TestLevelForPoints(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{399, 1},
		{400, 2},
		{899, 2},
		{900, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForPoints(tt.points), "points=%d", tt.points)
	}
}

func TestNextLevelPoints(t *testing.T) {
	assert.Equal(t, 100, NextLevelPoints(0))
	assert.Equal(t, 400, NextLevelPoints(1))
	assert.Equal(t, 900, NextLevelPoints(2))
}

func TestCreditPoints_LevelUpBonus(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "climber", 0, 0)

	// 100 points reaches level 1, which credits a 50-point bonus.
	require.NoError(t, svc.CreditPoints(user.ID, 100, "impact"))

	updated := reloadUser(t, db, user.ID)
	assert.Equal(t, 150, updated.Points)
	assert.Equal(t, 1, updated.Level)
}

func TestCreditPoints_BonusNotRecheckedWithinSameCredit(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "edge", 0, 0)

	// 380 points is level 1; the +50 bonus lands on 430, past the level-2
	// boundary, but the level is computed once per credit.
	require.NoError(t, svc.CreditPoints(user.ID, 380, "impact"))

	updated := reloadUser(t, db, user.ID)
	assert.Equal(t, 430, updated.Points)
	assert.Equal(t, 1, updated.Level)

	// The next credit picks the boundary up.
	require.NoError(t, svc.CreditPoints(user.ID, 10, "impact"))
	updated = reloadUser(t, db, user.ID)
	assert.Equal(t, 2, updated.Level)
}

func TestCreditPoints_NoBonusWithoutLevelChange(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "steady", 100, 1)

	require.NoError(t, svc.CreditPoints(user.ID, 50, "impact"))

	updated := reloadUser(t, db, user.ID)
	assert.Equal(t, 150, updated.Points)
	assert.Equal(t, 1, updated.Level)
}

func TestCreditPoints_ClampsAtZero(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "debtor", 30, 0)

	require.NoError(t, svc.CreditPoints(user.ID, -100, "adjustment"))

	updated := reloadUser(t, db, user.ID)
	assert.Equal(t, 0, updated.Points)
}

func TestGetSnapshot_Rank(t *testing.T) {
	svc, db := setupService(t)
	createUser(t, db, "leader", 1000, 3)
	createUser(t, db, "chaser", 500, 2)
	me := createUser(t, db, "me", 500, 2)
	createUser(t, db, "behind", 100, 1)

	snapshot, err := svc.GetSnapshot(me.ID)
	require.NoError(t, err)

	// One user strictly ahead; the tie does not push the rank down.
	assert.Equal(t, 2, snapshot.Rank)
	assert.Equal(t, 500, snapshot.Points)
	assert.Equal(t, 900, snapshot.NextLevelPoints)
}

func TestEvaluateBadges_AwardsAndCreditsOnce(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "recycler", 0, 0)
	badge := createBadge(t, db, "First Steps", models.BadgeTypeRecycling, 30, `{"devices_required":1}`)

	device := &models.Device{UserID: user.ID, DeviceType: "laptop", Status: models.DeviceStatusRecycled}
	require.NoError(t, db.Create(device).Error)

	earned, err := svc.EvaluateBadges(user.ID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, badge.ID, earned[0].ID)
	assert.Equal(t, 30, reloadUser(t, db, user.ID).Points)

	// Re-evaluation must not award or credit again.
	earned, err = svc.EvaluateBadges(user.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)
	assert.Equal(t, 30, reloadUser(t, db, user.ID).Points)
}

func TestEvaluateBadges_UnmetCriteria(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "starter", 0, 0)
	createBadge(t, db, "Marathon", models.BadgeTypeRecycling, 100, `{"devices_required":50}`)

	earned, err := svc.EvaluateBadges(user.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestEvaluateBadges_EnvironmentalEitherThreshold(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "greener", 0, 0)
	createBadge(t, db, "Water Guardian", models.BadgeTypeEnvironmental, 20,
		`{"water_required":1000,"co2_required":500}`)

	device := &models.Device{UserID: user.ID, DeviceType: "laptop", Status: models.DeviceStatusRecycled}
	require.NoError(t, db.Create(device).Error)
	report := &models.ImpactReport{DeviceID: device.ID, UserID: user.ID, WaterSaved: 2400, CO2Saved: 9.6}
	require.NoError(t, db.Create(report).Error)

	// Water threshold met, CO2 not; either one qualifies.
	earned, err := svc.EvaluateBadges(user.ID)
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestGetBadgeProgress(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "halfway", 0, 0)
	createBadge(t, db, "Collector", models.BadgeTypeRecycling, 50, `{"devices_required":4}`)

	for i := 0; i < 2; i++ {
		device := &models.Device{UserID: user.ID, DeviceType: "laptop", Status: models.DeviceStatusRecycled}
		require.NoError(t, db.Create(device).Error)
	}

	progress, err := svc.GetBadgeProgress(user.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 50, progress[0].Percent)
}

func TestGetBadgeProgress_CapsAtHundred(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "overflow", 5000, 7)
	createBadge(t, db, "Point Hunter", models.BadgeTypeAchievement, 10, `{"points_required":1000}`)

	progress, err := svc.GetBadgeProgress(user.ID)
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, 100, progress[0].Percent)
}

func createChallenge(t *testing.T, db *repository.DB, name, challengeType string, target, reward int, startsAt, endsAt time.Time) *models.Challenge {
	t.Helper()

	challenge := &models.Challenge{
		Name:         name,
		Type:         challengeType,
		TargetValue:  target,
		RewardPoints: reward,
		StartsAt:     startsAt,
		EndsAt:       endsAt,
		Active:       true,
	}
	require.NoError(t, db.Create(challenge).Error)
	return challenge
}

func TestJoinChallenge(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "joiner", 0, 0)
	now := time.Now()
	challenge := createChallenge(t, db, "Spring Cleanup", models.ChallengeTypeRecycling, 5, 100,
		now.Add(-time.Hour), now.Add(24*time.Hour))

	require.NoError(t, svc.JoinChallenge(user.ID, challenge.ID))

	// Double join is a conflict.
	err := svc.JoinChallenge(user.ID, challenge.ID)
	assert.Error(t, err)
}

func TestJoinChallenge_WindowChecks(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "early", 0, 0)
	now := time.Now()

	future := createChallenge(t, db, "Not Yet", models.ChallengeTypeRecycling, 5, 100,
		now.Add(time.Hour), now.Add(48*time.Hour))
	assert.Error(t, svc.JoinChallenge(user.ID, future.ID))

	past := createChallenge(t, db, "Too Late", models.ChallengeTypeRecycling, 5, 100,
		now.Add(-48*time.Hour), now.Add(-time.Hour))
	assert.Error(t, svc.JoinChallenge(user.ID, past.ID))

	assert.Error(t, svc.JoinChallenge(user.ID, 9999))
}

func TestAdvanceChallenges_CompletesOnceWithSingleReward(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "grinder", 0, 0)
	now := time.Now()
	challenge := createChallenge(t, db, "Recycle Five", models.ChallengeTypeRecycling, 5, 50,
		now.Add(-time.Hour), now.Add(24*time.Hour))

	require.NoError(t, svc.JoinChallenge(user.ID, challenge.ID))

	require.NoError(t, svc.AdvanceChallenges(user.ID, models.ChallengeTypeRecycling, 3))
	assert.Equal(t, 0, reloadUser(t, db, user.ID).Points)

	// Crossing the target latches completion and credits the reward.
	require.NoError(t, svc.AdvanceChallenges(user.ID, models.ChallengeTypeRecycling, 2))
	assert.Equal(t, 50, reloadUser(t, db, user.ID).Points)

	rows, err := svc.GetChallengeProgress(user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Completed)
	assert.Equal(t, 5, rows[0].CurrentProgress)
	require.NotNil(t, rows[0].CompletedAt)

	// Completed rows accept no further progress and no second reward.
	require.NoError(t, svc.AdvanceChallenges(user.ID, models.ChallengeTypeRecycling, 4))
	rows, err = svc.GetChallengeProgress(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, rows[0].CurrentProgress)
	assert.Equal(t, 50, reloadUser(t, db, user.ID).Points)
}

func TestAdvanceChallenges_TypeRouting(t *testing.T) {
	svc, db := setupService(t)
	user := createUser(t, db, "donor", 0, 0)
	now := time.Now()

	recycling := createChallenge(t, db, "Recyclers", models.ChallengeTypeRecycling, 2, 10,
		now.Add(-time.Hour), now.Add(24*time.Hour))
	donation := createChallenge(t, db, "Donors", models.ChallengeTypeDonation, 2, 10,
		now.Add(-time.Hour), now.Add(24*time.Hour))

	require.NoError(t, svc.JoinChallenge(user.ID, recycling.ID))
	require.NoError(t, svc.JoinChallenge(user.ID, donation.ID))

	require.NoError(t, svc.AdvanceChallenges(user.ID, models.ChallengeTypeDonation, 1))

	rows, err := svc.GetChallengeProgress(user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		switch row.ChallengeID {
		case recycling.ID:
			assert.Equal(t, 0, row.CurrentProgress)
		case donation.ID:
			assert.Equal(t, 1, row.CurrentProgress)
		}
	}
}

func TestAdvanceChallenges_RejectsNonPositiveDelta(t *testing.T) {
	svc, _ := setupService(t)
	assert.Error(t, svc.AdvanceChallenges(1, models.ChallengeTypeRecycling, 0))
	assert.Error(t, svc.AdvanceChallenges(1, models.ChallengeTypeRecycling, -2))
}

func TestExpireChallenges(t *testing.T) {
	svc, db := setupService(t)
	now := time.Now()

	createChallenge(t, db, "Ended", models.ChallengeTypeRecycling, 5, 10,
		now.Add(-48*time.Hour), now.Add(-time.Hour))
	createChallenge(t, db, "Running", models.ChallengeTypeRecycling, 5, 10,
		now.Add(-time.Hour), now.Add(24*time.Hour))

	expired, err := svc.ExpireChallenges()
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	var remaining int64
	require.NoError(t, db.Model(&models.Challenge{}).Where("active = ?", true).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
