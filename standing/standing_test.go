package standing

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/heibot/sanction"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func calc() *Calculator {
	return New(sanction.FixedClock(now))
}

func violation(sev sanction.Severity, age time.Duration) *sanction.Violation {
	return &sanction.Violation{
		ID:       "v",
		Severity: sev,
		IssuedAt: now.Add(-age),
		IssuedBy: sanction.AutomatedIssuer,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestIsExpired(t *testing.T) {
	c := calc()

	tests := []struct {
		name string
		v    *sanction.Violation
		want bool
	}{
		{name: "no expiry", v: violation(sanction.SeverityLow, time.Hour), want: false},
		{name: "moderator expired", v: &sanction.Violation{ExpiredAt: ptr(now.Add(-time.Minute))}, want: true},
		{name: "expiry passed", v: &sanction.Violation{ExpiresAt: ptr(now.Add(-time.Second))}, want: true},
		{name: "expiry now", v: &sanction.Violation{ExpiresAt: ptr(now)}, want: true},
		{name: "expiry in future", v: &sanction.Violation{ExpiresAt: ptr(now.Add(time.Hour))}, want: false},
		{name: "moderator expired beats future expiry", v: &sanction.Violation{ExpiresAt: ptr(now.Add(time.Hour)), ExpiredAt: ptr(now)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsExpired(tt.v); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRecent(t *testing.T) {
	c := calc()
	if !c.IsRecent(violation(sanction.SeverityLow, 29*24*time.Hour)) {
		t.Error("29 days old should be recent")
	}
	if !c.IsRecent(violation(sanction.SeverityLow, 30*24*time.Hour)) {
		t.Error("exactly 30 days old should be recent")
	}
	if c.IsRecent(violation(sanction.SeverityLow, 31*24*time.Hour)) {
		t.Error("31 days old should not be recent")
	}
}

func TestSeverityScore(t *testing.T) {
	c := calc()

	tests := []struct {
		name string
		vs   []*sanction.Violation
		want float64
	}{
		{name: "empty", vs: nil, want: 0},
		{name: "recent critical", vs: []*sanction.Violation{violation(sanction.SeverityCritical, time.Hour)}, want: 150},
		{name: "old critical", vs: []*sanction.Violation{violation(sanction.SeverityCritical, 60*24*time.Hour)}, want: 100},
		{name: "recent high", vs: []*sanction.Violation{violation(sanction.SeverityHigh, time.Hour)}, want: 75},
		{
			name: "recent low and medium",
			vs: []*sanction.Violation{
				violation(sanction.SeverityLow, time.Hour),
				violation(sanction.SeverityMedium, 2*time.Hour),
			},
			want: 52.5,
		},
		{name: "unknown severity", vs: []*sanction.Violation{violation(sanction.Severity(0), time.Hour)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.SeverityScore(tt.vs); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SeverityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStanding(t *testing.T) {
	c := calc()

	tests := []struct {
		name string
		vs   []*sanction.Violation
		want sanction.Standing
	}{
		{name: "no violations", vs: nil, want: sanction.StandingAllGood},
		{name: "recent critical", vs: []*sanction.Violation{violation(sanction.SeverityCritical, time.Hour)}, want: sanction.StandingSuspended},
		{name: "recent high", vs: []*sanction.Violation{violation(sanction.SeverityHigh, time.Hour)}, want: sanction.StandingAtRisk},
		{
			name: "recent low and medium",
			vs: []*sanction.Violation{
				violation(sanction.SeverityLow, time.Hour),
				violation(sanction.SeverityMedium, time.Hour),
			},
			want: sanction.StandingVeryLimited,
		},
		{name: "old medium is limited", vs: []*sanction.Violation{violation(sanction.SeverityMedium, 45*24*time.Hour)}, want: sanction.StandingLimited},
		{name: "recent low is all good", vs: []*sanction.Violation{violation(sanction.SeverityLow, time.Hour)}, want: sanction.StandingAllGood},
		{
			name: "expired violations ignored",
			vs: []*sanction.Violation{
				{Severity: sanction.SeverityCritical, IssuedAt: now.Add(-time.Hour), ExpiredAt: ptr(now)},
			},
			want: sanction.StandingAllGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Standing(tt.vs); got != tt.want {
				t.Errorf("Standing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	c := calc()

	older := violation(sanction.SeverityMedium, 10*24*time.Hour)
	older.Restrictions = []sanction.FeatureRestriction{sanction.RestrictRateLimit, sanction.RestrictMessageLink}
	older.ExpiresAt = ptr(now.Add(20 * 24 * time.Hour))

	newer := violation(sanction.SeverityLow, time.Hour)
	newer.Restrictions = []sanction.FeatureRestriction{sanction.RestrictRateLimit}
	newer.ExpiresAt = ptr(now.Add(6 * 24 * time.Hour))

	expired := violation(sanction.SeverityCritical, 2*time.Hour)
	expired.ExpiredAt = ptr(now.Add(-time.Minute))
	expired.Restrictions = []sanction.FeatureRestriction{sanction.RestrictVoiceSpeak}

	data := c.Calculate([]*sanction.Violation{older, newer, expired})

	if data.ActiveViolations != 2 || data.TotalViolations != 3 {
		t.Errorf("active/total = %d/%d, want 2/3", data.ActiveViolations, data.TotalViolations)
	}
	if math.Abs(data.SeverityScore-52.5) > 1e-9 {
		t.Errorf("SeverityScore = %v, want 52.5", data.SeverityScore)
	}
	if data.Standing != sanction.StandingVeryLimited {
		t.Errorf("Standing = %v, want VERY_LIMITED", data.Standing)
	}
	want := []sanction.FeatureRestriction{sanction.RestrictMessageLink, sanction.RestrictRateLimit}
	if len(data.Restrictions) != len(want) {
		t.Fatalf("Restrictions = %v, want %v", data.Restrictions, want)
	}
	for i := range want {
		if data.Restrictions[i] != want[i] {
			t.Errorf("Restrictions[%d] = %v, want %v", i, data.Restrictions[i], want[i])
		}
	}
	if data.LastViolationAt == nil || !data.LastViolationAt.Equal(newer.IssuedAt) {
		t.Errorf("LastViolationAt = %v, want %v", data.LastViolationAt, newer.IssuedAt)
	}
	if data.NextExpirationAt == nil || !data.NextExpirationAt.Equal(*newer.ExpiresAt) {
		t.Errorf("NextExpirationAt = %v, want %v", data.NextExpirationAt, *newer.ExpiresAt)
	}
}

func TestCalculate_Empty(t *testing.T) {
	data := calc().Calculate(nil)
	if data.Standing != sanction.StandingAllGood {
		t.Errorf("Standing = %v, want ALL_GOOD", data.Standing)
	}
	if data.Restrictions == nil {
		t.Error("Restrictions should be empty, not nil")
	}
	if data.LastViolationAt != nil || data.NextExpirationAt != nil {
		t.Error("timestamps should be nil for an empty history")
	}
}

func TestIsAIDetected(t *testing.T) {
	tests := []struct {
		name     string
		issuedBy string
		reason   string
		want     bool
	}{
		{name: "automated issuer", issuedBy: "0", reason: "spam", want: true},
		{name: "no issuer", issuedBy: "", reason: "spam", want: true},
		{name: "marker in reason", issuedBy: "12345", reason: "AI-detected: slur", want: true},
		{name: "marker mid-reason", issuedBy: "12345", reason: "confirmed, AI-detected earlier", want: true},
		{name: "lowercase marker", issuedBy: "12345", reason: "ai-detected: slur", want: false},
		{name: "moderator issued", issuedBy: "12345", reason: "manual warn", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &sanction.Violation{IssuedBy: tt.issuedBy, Reason: tt.reason}
			if got := IsAIDetected(v); got != tt.want {
				t.Errorf("IsAIDetected() = %v, want %v", got, tt.want)
			}
		})
	}
	if IsAIDetected(nil) {
		t.Error("IsAIDetected(nil) = true, want false")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		data   sanction.AccountStandingData
		prefix string
	}{
		{sanction.AccountStandingData{Standing: sanction.StandingAllGood}, "All good: no active"},
		{sanction.AccountStandingData{Standing: sanction.StandingAllGood, ActiveViolations: 1, SeverityScore: 15}, "All good: 1 active"},
		{sanction.AccountStandingData{Standing: sanction.StandingLimited, ActiveViolations: 1, SeverityScore: 25}, "Limited:"},
		{sanction.AccountStandingData{Standing: sanction.StandingVeryLimited, ActiveViolations: 2, SeverityScore: 52.5}, "Very limited:"},
		{sanction.AccountStandingData{Standing: sanction.StandingAtRisk, ActiveViolations: 1, SeverityScore: 75}, "At risk:"},
		{sanction.AccountStandingData{Standing: sanction.StandingSuspended, ActiveViolations: 1, SeverityScore: 150}, "Suspended:"},
	}

	for _, tt := range tests {
		if got := Describe(tt.data); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("Describe(%v) = %q, want prefix %q", tt.data.Standing, got, tt.prefix)
		}
	}
	if got := Describe(sanction.AccountStandingData{Standing: sanction.StandingVeryLimited, ActiveViolations: 2, SeverityScore: 52.5}); !strings.Contains(got, "52.5") {
		t.Errorf("Describe() = %q, want score in text", got)
	}
}
