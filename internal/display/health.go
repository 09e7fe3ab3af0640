package display

import (
	"math"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// HealthProfile selects one of the two named threshold sets used to classify
// pools. ProfileStandard is applied to per-pool API annotations;
// ProfileStrict is applied by the dashboard aggregates view. Both remain
// available because different dashboards in production use different
// thresholds; which set is authoritative is an open product question.
type HealthProfile int

const (
	ProfileStandard HealthProfile = iota
	ProfileStrict
)

// PoolHealth classifies a pool snapshot into exactly one tier. The three
// predicates form a strict decision tree evaluated in order, so the tiers are
// mutually exclusive by construction.
//
// standard: healthy iff vol24h > $10k AND reserve > $50k AND |chg24h| < 20%;
// warning iff not healthy AND (reserve > $50k OR (vol24h > $10k AND
// |chg24h| < 20%)); risky otherwise.
//
// strict: healthy iff vol24h > $100k AND reserve > $500k AND |chg24h| < 15%;
// warning iff not healthy AND vol24h > $10k AND reserve > $50k; risky
// otherwise.
func PoolHealth(pool domain.Pool, profile HealthProfile) domain.HealthTier {
	volume := parseAmount(pool.VolumeUSD.H24)
	reserve := parseAmount(pool.ReserveUSD)
	change := math.Abs(parseAmount(pool.PriceChangePct.H24))

	if profile == ProfileStrict {
		switch {
		case volume > 100_000 && reserve > 500_000 && change < 15:
			return domain.HealthHealthy
		case volume > 10_000 && reserve > 50_000:
			return domain.HealthWarning
		default:
			return domain.HealthRisky
		}
	}

	switch {
	case volume > 10_000 && reserve > 50_000 && change < 20:
		return domain.HealthHealthy
	case reserve > 50_000 || (volume > 10_000 && change < 20):
		return domain.HealthWarning
	default:
		return domain.HealthRisky
	}
}
