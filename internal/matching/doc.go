// Package matching computes weighted compatibility scores between golfers
// and tee times.
//
// A score is the exact sum of six independently-bounded factors (industry
// affinity, proximity, skill tier, temporal relevance, capacity, and a fixed
// social baseline). Factors also emit short human-readable reasons for UI
// consumption. Scores are recomputed on demand from current persisted state
// and never stored.
package matching
