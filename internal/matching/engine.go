package matching

import (
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/metrics"
)

const (
	// DefaultLimit caps the ranked result list.
	DefaultLimit = 50
	// DefaultMinScore discards weak matches.
	DefaultMinScore = 40.0
	// MaxPoolSize caps the candidate pool before scoring. A deliberate
	// scale/cost approximation, not a correctness requirement: pools are
	// pre-ordered by the repository and anything past 200 candidates was
	// never going to rank.
	MaxPoolSize = 200
)

// Options tunes one scoring request. Zero values fall back to defaults;
// MinScore below zero disables the cutoff.
type Options struct {
	Limit      int
	MinScore   float64
	ExcludeIDs []uuid.UUID
}

func (o Options) normalized() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	return o
}

// Factor is one named sub-score of a total.
type Factor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Result is one scored golfer/tee-time pairing. Never persisted.
type Result struct {
	GolferID  uuid.UUID `json:"golferId"`
	TeeTimeID uuid.UUID `json:"teeTimeId"`
	Score     float64   `json:"score"`
	Breakdown []Factor  `json:"breakdown"`
	Reasons   []string  `json:"reasons"`
}

// Engine scores candidate pools supplied by the persistence layer.
type Engine struct {
	clock clockwork.Clock
}

// NewEngine creates a matching engine.
func NewEngine(clock clockwork.Clock) *Engine {
	return &Engine{clock: clock}
}

// ScoreTeeTimesForGolfer ranks candidate tee times for one golfer.
func (e *Engine) ScoreTeeTimesForGolfer(golfer *domain.Golfer, pool []domain.TeeTime, opts Options) []Result {
	opts = opts.normalized()
	metrics.MatchRequestsTotal.WithLabelValues("tee_times_for_golfer").Inc()
	timer := e.clock.Now()

	pool = lo.Subset(pool, 0, MaxPoolSize)
	excluded := excludeSet(opts.ExcludeIDs)

	results := make([]Result, 0, len(pool))
	for i := range pool {
		teeTime := &pool[i]
		if _, skip := excluded[teeTime.ID]; skip {
			continue
		}
		r := e.score(golfer, teeTime)
		if r.Score >= opts.MinScore {
			results = append(results, r)
		}
	}

	sortResults(results, pool)
	results = lo.Subset(results, 0, uint(opts.Limit))

	metrics.MatchScoringDuration.Observe(e.clock.Since(timer).Seconds())
	return results
}

// ScoreGolfersForTeeTime ranks candidate golfers for one tee time.
func (e *Engine) ScoreGolfersForTeeTime(teeTime *domain.TeeTime, pool []domain.Golfer, opts Options) []Result {
	opts = opts.normalized()
	metrics.MatchRequestsTotal.WithLabelValues("golfers_for_tee_time").Inc()
	timer := e.clock.Now()

	pool = lo.Subset(pool, 0, MaxPoolSize)
	excluded := excludeSet(opts.ExcludeIDs)

	results := make([]Result, 0, len(pool))
	for i := range pool {
		golfer := &pool[i]
		if _, skip := excluded[golfer.ID]; skip {
			continue
		}
		if golfer.ID == teeTime.HostID {
			continue
		}
		r := e.score(golfer, teeTime)
		if r.Score >= opts.MinScore {
			results = append(results, r)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].GolferID.String() < results[j].GolferID.String()
	})
	results = lo.Subset(results, 0, uint(opts.Limit))

	metrics.MatchScoringDuration.Observe(e.clock.Since(timer).Seconds())
	return results
}

// score computes the six factors for one pairing. The total is their exact
// sum; each factor clamps itself to its own maximum.
func (e *Engine) score(golfer *domain.Golfer, teeTime *domain.TeeTime) Result {
	affinity, affinityReason := affinityScore(golfer.Industry, teeTime.PreferredIndustry, teeTime.HostIndustry)
	proximity, proximityReason := proximityScore(golfer.Location, teeTime.Location)
	tier, tierReason := tierScore(golfer.Tier, teeTime.RequiredTier)
	temporal, temporalReason := temporalScore(e.clock.Now(), teeTime.StartTime)
	capacity, capacityReason := capacityScore(teeTime.OpenSlots())

	breakdown := []Factor{
		{Name: FactorAffinity, Score: affinity},
		{Name: FactorProximity, Score: proximity},
		{Name: FactorTier, Score: tier},
		{Name: FactorTemporal, Score: temporal},
		{Name: FactorCapacity, Score: capacity},
		{Name: FactorSocial, Score: SocialBaseline},
	}

	var total float64
	for _, f := range breakdown {
		total += f.Score
	}

	reasons := lo.Compact([]string{
		affinityReason, proximityReason, tierReason, temporalReason, capacityReason,
	})

	return Result{
		GolferID:  golfer.ID,
		TeeTimeID: teeTime.ID,
		Score:     total,
		Breakdown: breakdown,
		Reasons:   reasons,
	}
}

// sortResults orders by score descending, breaking ties by the tee time's
// start time (sooner first) and then id, for deterministic output.
func sortResults(results []Result, pool []domain.TeeTime) {
	starts := make(map[uuid.UUID]int64, len(pool))
	for i := range pool {
		starts[pool[i].ID] = pool[i].StartTime.UnixNano()
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if starts[results[i].TeeTimeID] != starts[results[j].TeeTimeID] {
			return starts[results[i].TeeTimeID] < starts[results[j].TeeTimeID]
		}
		return results[i].TeeTimeID.String() < results[j].TeeTimeID.String()
	})
}

func excludeSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
