// Package standing aggregates a user's violations into an account standing.
package standing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/heibot/sanction"
)

const recentWindow = sanction.RecentViolationDays * 24 * time.Hour

// recentMultiplier weights violations issued inside the recent window.
const recentMultiplier = 1.5

var baseScores = map[sanction.Severity]float64{
	sanction.SeverityLow:      10,
	sanction.SeverityMedium:   25,
	sanction.SeverityHigh:     50,
	sanction.SeverityCritical: 100,
}

// thresholds are inclusive lower bounds, highest first.
var thresholds = []struct {
	min      float64
	standing sanction.Standing
}{
	{100, sanction.StandingSuspended},
	{75, sanction.StandingAtRisk},
	{50, sanction.StandingVeryLimited},
	{25, sanction.StandingLimited},
}

// Calculator evaluates time-dependent standing predicates against a Clock.
type Calculator struct {
	Clock sanction.Clock
}

// New returns a Calculator reading clock. A nil clock uses the wall clock.
func New(clock sanction.Clock) *Calculator {
	if clock == nil {
		clock = sanction.SystemClock{}
	}
	return &Calculator{Clock: clock}
}

func (c *Calculator) now() time.Time {
	if c == nil || c.Clock == nil {
		return time.Now()
	}
	return c.Clock.Now()
}

// IsExpired reports whether v was expired by a moderator or its expiry has passed.
func (c *Calculator) IsExpired(v *sanction.Violation) bool {
	if v == nil {
		return true
	}
	if v.ExpiredAt != nil {
		return true
	}
	if v.ExpiresAt != nil && !v.ExpiresAt.After(c.now()) {
		return true
	}
	return false
}

// IsRecent reports whether v was issued within the last 30 days.
func (c *Calculator) IsRecent(v *sanction.Violation) bool {
	if v == nil {
		return false
	}
	return c.now().Sub(v.IssuedAt) <= recentWindow
}

// SeverityScore sums the weighted severity of vs. Unknown severities score zero.
func (c *Calculator) SeverityScore(vs []*sanction.Violation) float64 {
	var score float64
	for _, v := range vs {
		if v == nil {
			continue
		}
		base := baseScores[v.Severity]
		if c.IsRecent(v) {
			base *= recentMultiplier
		}
		score += base
	}
	return score
}

// Active returns the violations in vs that have not expired.
func (c *Calculator) Active(vs []*sanction.Violation) []*sanction.Violation {
	active := make([]*sanction.Violation, 0, len(vs))
	for _, v := range vs {
		if !c.IsExpired(v) {
			active = append(active, v)
		}
	}
	return active
}

// Standing classifies the account from its active violations.
func (c *Calculator) Standing(vs []*sanction.Violation) sanction.Standing {
	active := c.Active(vs)
	if len(active) == 0 {
		return sanction.StandingAllGood
	}
	return classify(c.SeverityScore(active))
}

func classify(score float64) sanction.Standing {
	for _, t := range thresholds {
		if score >= t.min {
			return t.standing
		}
	}
	return sanction.StandingAllGood
}

// Calculate builds the full standing aggregate for vs.
func (c *Calculator) Calculate(vs []*sanction.Violation) sanction.AccountStandingData {
	active := c.Active(vs)
	total := 0
	for _, v := range vs {
		if v != nil {
			total++
		}
	}

	data := sanction.AccountStandingData{
		Standing:         sanction.StandingAllGood,
		ActiveViolations: len(active),
		TotalViolations:  total,
		Restrictions:     []sanction.FeatureRestriction{},
	}
	if len(active) == 0 {
		return data
	}

	data.SeverityScore = c.SeverityScore(active)
	data.Standing = classify(data.SeverityScore)

	seen := make(map[sanction.FeatureRestriction]bool)
	for _, v := range active {
		for _, r := range v.Restrictions {
			if r.Valid() && !seen[r] {
				seen[r] = true
				data.Restrictions = append(data.Restrictions, r)
			}
		}

		issued := v.IssuedAt
		if data.LastViolationAt == nil || issued.After(*data.LastViolationAt) {
			data.LastViolationAt = &issued
		}
		if v.ExpiresAt != nil {
			exp := *v.ExpiresAt
			if data.NextExpirationAt == nil || exp.Before(*data.NextExpirationAt) {
				data.NextExpirationAt = &exp
			}
		}
	}
	sort.Slice(data.Restrictions, func(i, j int) bool {
		return data.Restrictions[i] < data.Restrictions[j]
	})

	return data
}

// IsAIDetected reports whether v was issued by the automated pipeline.
// The marker match is case-sensitive.
func IsAIDetected(v *sanction.Violation) bool {
	if v == nil {
		return false
	}
	if v.IssuedBy == "" || v.IssuedBy == sanction.AutomatedIssuer {
		return true
	}
	return strings.Contains(v.Reason, sanction.AIDetectedMarker)
}

// Describe renders a one-line human-readable summary of data.
func Describe(data sanction.AccountStandingData) string {
	switch data.Standing {
	case sanction.StandingAllGood:
		if data.ActiveViolations == 0 {
			return "All good: no active violations."
		}
		return fmt.Sprintf("All good: %d active violation(s) below the limited threshold.", data.ActiveViolations)
	case sanction.StandingLimited:
		return fmt.Sprintf("Limited: %d active violation(s), score %.1f. Some features may be restricted.", data.ActiveViolations, data.SeverityScore)
	case sanction.StandingVeryLimited:
		return fmt.Sprintf("Very limited: %d active violation(s), score %.1f. Several features are restricted.", data.ActiveViolations, data.SeverityScore)
	case sanction.StandingAtRisk:
		return fmt.Sprintf("At risk: %d active violation(s), score %.1f. Further violations may lead to suspension.", data.ActiveViolations, data.SeverityScore)
	case sanction.StandingSuspended:
		return fmt.Sprintf("Suspended: %d active violation(s), score %.1f.", data.ActiveViolations, data.SeverityScore)
	default:
		return "Unknown standing."
	}
}
