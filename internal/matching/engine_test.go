package matching

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(clockwork.NewFakeClockAt(testNow))
}

func testGolfer(industry string, tier domain.SkillTier) *domain.Golfer {
	return &domain.Golfer{
		ID:          uuid.New(),
		DisplayName: "Test Golfer",
		Industry:    industry,
		Tier:        tier,
	}
}

func testTeeTime(fn func(*domain.TeeTime)) domain.TeeTime {
	teeTime := domain.TeeTime{
		ID:           uuid.New(),
		HostID:       uuid.New(),
		HostIndustry: "FINANCE",
		CourseName:   "Pebble Creek",
		StartTime:    testNow.Add(30 * time.Hour),
		RequiredTier: domain.TierAny,
		MaxPlayers:   4,
	}
	if fn != nil {
		fn(&teeTime)
	}
	return teeTime
}

func TestScoreTeeTimesForGolfer(t *testing.T) {
	engine := testEngine()

	t.Run("worked scenario", func(t *testing.T) {
		// TECH golfer with no location against a tee time preferring TECH,
		// open to all tiers, ten open slots, starting in 30 hours:
		// 30 + 10 + 12 + 15 + 10 + 2.
		golfer := testGolfer("TECH", domain.TierIntermediate)
		teeTime := testTeeTime(func(tt *domain.TeeTime) {
			tt.PreferredIndustry = "TECH"
			tt.MaxPlayers = 10
		})

		results := engine.ScoreTeeTimesForGolfer(golfer, []domain.TeeTime{teeTime}, Options{})
		require.Len(t, results, 1)

		r := results[0]
		assert.Equal(t, 79.0, r.Score)
		assert.Equal(t, golfer.ID, r.GolferID)
		assert.Equal(t, teeTime.ID, r.TeeTimeID)
		assert.Contains(t, r.Reasons, "Industry match: TECH")
		assert.Contains(t, r.Reasons, "10 spots available")
		assert.Contains(t, r.Reasons, "Open to all skill levels")
	})

	t.Run("total equals sum of breakdown", func(t *testing.T) {
		golfer := testGolfer("MEDIA", domain.TierBeginner)
		golfer.Location = &domain.Location{City: "Austin", Latitude: 30.2672, Longitude: -97.7431}
		teeTime := testTeeTime(func(tt *domain.TeeTime) {
			tt.PreferredIndustry = "TECH"
			tt.RequiredTier = domain.TierIntermediate
			tt.Location = &domain.Location{City: "Dallas", Latitude: 32.7767, Longitude: -96.7970}
			tt.BookedPlayers = 3
		})

		results := engine.ScoreTeeTimesForGolfer(golfer, []domain.TeeTime{teeTime}, Options{MinScore: -1})
		require.Len(t, results, 1)

		require.Len(t, results[0].Breakdown, 6)
		var sum float64
		for _, f := range results[0].Breakdown {
			sum += f.Score
		}
		assert.Equal(t, sum, results[0].Score)

		names := make([]string, 0, 6)
		for _, f := range results[0].Breakdown {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{
			FactorAffinity, FactorProximity, FactorTier,
			FactorTemporal, FactorCapacity, FactorSocial,
		}, names)
	})

	t.Run("min score cutoff", func(t *testing.T) {
		golfer := testGolfer("HEALTHCARE", domain.TierBeginner)
		// Unrelated industry, far future, advanced-only, one slot left:
		// 5 + 10 + 3 + 4 + 4 + 2 = 28, below the default cutoff of 40.
		weak := testTeeTime(func(tt *domain.TeeTime) {
			tt.PreferredIndustry = "TECH"
			tt.RequiredTier = domain.TierAdvanced
			tt.StartTime = testNow.Add(90 * 24 * time.Hour)
			tt.BookedPlayers = 3
		})

		results := engine.ScoreTeeTimesForGolfer(golfer, []domain.TeeTime{weak}, Options{})
		assert.Empty(t, results)

		results = engine.ScoreTeeTimesForGolfer(golfer, []domain.TeeTime{weak}, Options{MinScore: -1})
		require.Len(t, results, 1)
		assert.Equal(t, 28.0, results[0].Score)
	})

	t.Run("fully booked tee time scores zero capacity", func(t *testing.T) {
		golfer := testGolfer("TECH", domain.TierIntermediate)
		full := testTeeTime(func(tt *domain.TeeTime) {
			tt.PreferredIndustry = "TECH"
			tt.BookedPlayers = 4
		})

		results := engine.ScoreTeeTimesForGolfer(golfer, []domain.TeeTime{full}, Options{MinScore: -1})
		require.Len(t, results, 1)
		for _, f := range results[0].Breakdown {
			if f.Name == FactorCapacity {
				assert.Zero(t, f.Score)
			}
		}
	})

	t.Run("ordering is score desc then start time asc", func(t *testing.T) {
		golfer := testGolfer("TECH", domain.TierIntermediate)

		strong := testTeeTime(func(tt *domain.TeeTime) { tt.PreferredIndustry = "TECH" })
		weaker := testTeeTime(func(tt *domain.TeeTime) { tt.PreferredIndustry = "FINANCE" })
		// Same score as strong but starts later.
		strongLater := testTeeTime(func(tt *domain.TeeTime) {
			tt.PreferredIndustry = "TECH"
			tt.StartTime = strong.StartTime.Add(time.Hour)
		})

		results := engine.ScoreTeeTimesForGolfer(
			golfer, []domain.TeeTime{strongLater, weaker, strong}, Options{})
		require.Len(t, results, 3)
		assert.Equal(t, strong.ID, results[0].TeeTimeID)
		assert.Equal(t, strongLater.ID, results[1].TeeTimeID)
		assert.Equal(t, weaker.ID, results[2].TeeTimeID)
	})

	t.Run("limit and exclusions", func(t *testing.T) {
		golfer := testGolfer("TECH", domain.TierIntermediate)

		pool := make([]domain.TeeTime, 5)
		for i := range pool {
			pool[i] = testTeeTime(func(tt *domain.TeeTime) { tt.PreferredIndustry = "TECH" })
		}

		results := engine.ScoreTeeTimesForGolfer(golfer, pool, Options{Limit: 2})
		assert.Len(t, results, 2)

		results = engine.ScoreTeeTimesForGolfer(golfer, pool, Options{
			ExcludeIDs: []uuid.UUID{pool[0].ID, pool[1].ID},
		})
		assert.Len(t, results, 3)
		for _, r := range results {
			assert.NotEqual(t, pool[0].ID, r.TeeTimeID)
			assert.NotEqual(t, pool[1].ID, r.TeeTimeID)
		}
	})
}

func TestScoreGolfersForTeeTime(t *testing.T) {
	engine := testEngine()

	t.Run("host is never a candidate for their own round", func(t *testing.T) {
		host := testGolfer("TECH", domain.TierIntermediate)
		guest := testGolfer("TECH", domain.TierIntermediate)
		teeTime := testTeeTime(func(tt *domain.TeeTime) {
			tt.HostID = host.ID
			tt.PreferredIndustry = "TECH"
		})

		results := engine.ScoreGolfersForTeeTime(&teeTime, []domain.Golfer{*host, *guest}, Options{})
		require.Len(t, results, 1)
		assert.Equal(t, guest.ID, results[0].GolferID)
	})

	t.Run("ranked by score with id tie-break", func(t *testing.T) {
		teeTime := testTeeTime(func(tt *domain.TeeTime) { tt.PreferredIndustry = "TECH" })

		exact := testGolfer("TECH", domain.TierIntermediate)
		related := testGolfer("FINANCE", domain.TierIntermediate)
		twinA := testGolfer("MEDIA", domain.TierIntermediate)
		twinB := testGolfer("MEDIA", domain.TierIntermediate)

		results := engine.ScoreGolfersForTeeTime(&teeTime,
			[]domain.Golfer{*twinB, *related, *exact, *twinA}, Options{})
		require.Len(t, results, 4)
		assert.Equal(t, exact.ID, results[0].GolferID)
		assert.Greater(t, results[0].Score, results[2].Score)

		// MEDIA and FINANCE are both related to TECH, so the last three tie
		// and fall back to id order.
		assert.Equal(t, results[1].Score, results[2].Score)
		assert.Less(t, results[1].GolferID.String(), results[2].GolferID.String())
		assert.Less(t, results[2].GolferID.String(), results[3].GolferID.String())
	})
}
