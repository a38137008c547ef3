package matching

import (
	"fmt"
	"math"
	"time"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

// Factor maxima. The total maximum is their sum; every factor clamps itself,
// so a total can never exceed it.
const (
	MaxAffinityScore  = 30.0
	MaxProximityScore = 25.0
	MaxTierScore      = 15.0
	MaxTemporalScore  = 15.0
	MaxCapacityScore  = 10.0
	SocialBaseline    = 2.0
)

// Factor names, in breakdown order.
const (
	FactorAffinity  = "industry_affinity"
	FactorProximity = "proximity"
	FactorTier      = "skill_tier"
	FactorTemporal  = "temporal"
	FactorCapacity  = "capacity"
	FactorSocial    = "social_baseline"
)

// relatedIndustries maps an industry to industries considered adjacent for
// partial affinity credit. Symmetric by construction of the table.
var relatedIndustries = map[string][]string{
	"TECH":        {"FINANCE", "MEDIA"},
	"FINANCE":     {"TECH", "LEGAL", "REAL_ESTATE"},
	"LEGAL":       {"FINANCE", "REAL_ESTATE"},
	"MEDIA":       {"TECH", "MARKETING"},
	"MARKETING":   {"MEDIA", "SALES"},
	"SALES":       {"MARKETING", "REAL_ESTATE"},
	"REAL_ESTATE": {"FINANCE", "LEGAL", "SALES"},
	"HEALTHCARE":  {"PHARMA"},
	"PHARMA":      {"HEALTHCARE"},
}

func industriesRelated(a, b string) bool {
	for _, rel := range relatedIndustries[a] {
		if rel == b {
			return true
		}
	}
	return false
}

// affinityScore matches the golfer's industry against the tee time's stated
// preference, falling back to the host's own industry when no preference was
// stated. Never zero, so no candidate is fully excluded on industry alone.
func affinityScore(golferIndustry, preferred, hostIndustry string) (float64, string) {
	if golferIndustry == "" {
		return 5, ""
	}

	if preferred == "" {
		// No stated preference: partial credit against the host's industry.
		switch {
		case golferIndustry == hostIndustry:
			return 20, fmt.Sprintf("Same industry as host: %s", golferIndustry)
		case industriesRelated(golferIndustry, hostIndustry):
			return 12, ""
		default:
			return 8, ""
		}
	}

	switch {
	case golferIndustry == preferred:
		return MaxAffinityScore, fmt.Sprintf("Industry match: %s", golferIndustry)
	case industriesRelated(golferIndustry, preferred):
		return 18, fmt.Sprintf("Related industry: %s", golferIndustry)
	default:
		return 5, ""
	}
}

// proximityScore is a monotonically decreasing step function of great-circle
// distance, with a floor for very large distances (destination rounds are
// deprioritized, not excluded) and fixed partial credit when either side has
// no known location.
func proximityScore(golfer, course *domain.Location) (float64, string) {
	if golfer == nil || course == nil {
		return 10, ""
	}
	if golfer.City != "" && golfer.City == course.City {
		return MaxProximityScore, fmt.Sprintf("Same city: %s", course.City)
	}

	km := haversineKm(golfer.Latitude, golfer.Longitude, course.Latitude, course.Longitude)
	switch {
	case km <= 25:
		return 22, "Course nearby"
	case km <= 50:
		return 18, "Course nearby"
	case km <= 100:
		return 14, ""
	case km <= 250:
		return 10, ""
	case km <= 500:
		return 7, ""
	default:
		return 4, ""
	}
}

const earthRadiusKm = 6371.0

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

var tierRank = map[domain.SkillTier]int{
	domain.TierBeginner:     0,
	domain.TierIntermediate: 1,
	domain.TierAdvanced:     2,
}

// acceptableTiers maps a required tier to the tiers it accepts outright.
var acceptableTiers = map[domain.SkillTier][]domain.SkillTier{
	domain.TierBeginner:     {domain.TierBeginner, domain.TierIntermediate},
	domain.TierIntermediate: {domain.TierIntermediate, domain.TierAdvanced},
	domain.TierAdvanced:     {domain.TierAdvanced},
}

// tierScore maps the tee time's required tier against the golfer's tier:
// "any" is near-max, exact containment is max, one tier removed is partial,
// everything else a small floor.
func tierScore(golferTier, required domain.SkillTier) (float64, string) {
	if required == domain.TierAny || required == "" {
		return 12, "Open to all skill levels"
	}

	golferRank, known := tierRank[golferTier]
	if !known {
		return 8, ""
	}

	for _, acceptable := range acceptableTiers[required] {
		if golferTier == acceptable {
			return MaxTierScore, "Skill level fits"
		}
	}

	if abs(golferRank-tierRank[required]) == 1 {
		return 8, ""
	}
	return 3, ""
}

// temporalScore prioritizes filling near-term openings: soonest-but-still-
// future scores highest, strictly past scores zero.
func temporalScore(now, start time.Time) (float64, string) {
	if !start.After(now) {
		return 0, ""
	}

	until := start.Sub(now)
	switch {
	case until <= 48*time.Hour:
		return MaxTemporalScore, "Starting soon"
	case until <= 7*24*time.Hour:
		return 12, "Coming up this week"
	case until <= 14*24*time.Hour:
		return 8, ""
	default:
		return 4, ""
	}
}

// capacityScore rewards tee times with more open slots (lower commitment
// pressure for the candidate). Zero open slots scores zero.
func capacityScore(openSlots int) (float64, string) {
	switch {
	case openSlots <= 0:
		return 0, ""
	case openSlots == 1:
		return 4, "Last spot open"
	case openSlots <= 3:
		return 7, fmt.Sprintf("%d spots available", openSlots)
	default:
		return MaxCapacityScore, fmt.Sprintf("%d spots available", openSlots)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
