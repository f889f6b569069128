// Package plan resolves subscription plan descriptors into effective
// monthly allowances and display labels. All functions are pure.
package plan

import (
	"fmt"
	"math"
)

// Type identifies a subscription plan tier.
type Type string

const (
	TypePro        Type = "pro"
	TypeMax5x      Type = "max_5x"
	TypeMax20x     Type = "max_20x"
	TypeTeam       Type = "team"
	TypeEnterprise Type = "enterprise"
	TypeAPI        Type = "api"
)

// Plan describes a configured subscription (value type).
// A zero MonthlyAllowanceUSD means "use the type's default".
type Plan struct {
	Type                Type
	MonthlyAllowanceUSD float64
	Seats               int
	CustomLabel         string
}

type planDefault struct {
	label      string
	monthlyUSD float64
}

var planDefaults = map[Type]planDefault{
	TypePro:        {label: "Pro", monthlyUSD: 20},
	TypeMax5x:      {label: "Max 5x", monthlyUSD: 100},
	TypeMax20x:     {label: "Max 20x", monthlyUSD: 200},
	TypeTeam:       {label: "Team", monthlyUSD: 30},
	TypeEnterprise: {label: "Enterprise", monthlyUSD: 0},
	TypeAPI:        {label: "API", monthlyUSD: 0},
}

// seatScaled reports whether allowances scale with seat count for this type.
func seatScaled(t Type) bool {
	return t == TypeTeam || t == TypeEnterprise
}

// Label returns the display label for a plan.
// Priority: custom label, then the type's default label (with seat count
// for team/enterprise), then the raw type string.
func Label(p Plan) string {
	if p.CustomLabel != "" {
		return p.CustomLabel
	}
	def, ok := planDefaults[p.Type]
	if !ok {
		return string(p.Type)
	}
	if seatScaled(p.Type) && p.Seats > 1 {
		return fmt.Sprintf("%s (%d seats)", def.label, p.Seats)
	}
	return def.label
}

// EffectiveMonthlyAllowance returns the plan's monthly dollar allowance.
// An explicit positive allowance wins over the type default; both are
// multiplied by seat count for team/enterprise plans. Unknown types with
// no explicit allowance yield 0.
func EffectiveMonthlyAllowance(p Plan) float64 {
	seats := p.Seats
	if seats < 1 {
		seats = 1
	}
	if p.MonthlyAllowanceUSD > 0 {
		if seatScaled(p.Type) {
			return p.MonthlyAllowanceUSD * float64(seats)
		}
		return p.MonthlyAllowanceUSD
	}
	def, ok := planDefaults[p.Type]
	if !ok {
		return 0
	}
	if seatScaled(p.Type) {
		return def.monthlyUSD * float64(seats)
	}
	return def.monthlyUSD
}

// Pct returns what percentage of the plan's monthly allowance the given
// cost represents, rounded to 2 decimal places. Returns nil when the
// effective allowance is zero - a guard, not an error.
func Pct(costUSD float64, p Plan) *float64 {
	allowance := EffectiveMonthlyAllowance(p)
	if allowance <= 0 {
		return nil
	}
	// math.Round rounds half away from zero.
	pct := math.Round(costUSD/allowance*10000) / 100
	return &pct
}
