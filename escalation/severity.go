// Package escalation turns an offense count into a severity, applies the
// first-offense and manual-review policy, and derives feature restrictions.
package escalation

import (
	"math"

	"github.com/heibot/sanction"
)

// escalationMatrix is indexed by the capped offense count.
// Repetition alone never reaches CRITICAL.
var escalationMatrix = [3]sanction.Severity{
	sanction.SeverityLow,
	sanction.SeverityMedium,
	sanction.SeverityHigh,
}

// CalculateSeverity converts a same-section offense count into a severity.
// Severe rules skip escalation and are always HIGH.
func CalculateSeverity(offenseCount int, isSevere bool) sanction.Severity {
	if offenseCount < 0 {
		offenseCount = 0
	}
	if isSevere {
		return sanction.SeverityHigh
	}
	idx := offenseCount
	if idx > len(escalationMatrix)-1 {
		idx = len(escalationMatrix) - 1
	}
	return escalationMatrix[idx]
}

// NormalizeOffenseCount sanitizes a loosely typed count: NaN, infinities and
// negatives become 0, fractions are floored.
func NormalizeOffenseCount(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	f := math.Floor(v)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
