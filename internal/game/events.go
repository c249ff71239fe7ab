package game

import "fmt"

const (
	EventSickness     = "Employee sickness"
	EventContractWork = "Contract work"
	EventMarketCrisis = "Market crisis"

	ContractPayment     = 200
	MarketCrisisPenalty = 150
	SicknessFatigue     = 20

	sicknessFallbackCost = 10
	sicknessThreshold    = 0.4
	contractThreshold    = 0.7
)

// GameEvent lives for a single tick.
type GameEvent struct {
	Name     string `json:"name"`
	Effect   int    `json:"effect"`
	Employee string `json:"employee,omitempty"`
}

func (e GameEvent) Describe() string {
	if e.Employee != "" {
		return fmt.Sprintf("Event: %s (%s), effect: %+d", e.Name, e.Employee, e.Effect)
	}
	return fmt.Sprintf("Event: %s, effect: %+d", e.Name, e.Effect)
}

// RollWeeklyEvent draws at most one event and applies it to the studio
// immediately. The second return is false when nothing fired.
//
// A studio without employees that rolls sickness gets the contract branch
// instead.
func RollWeeklyEvent(studio *Studio, cfg BalanceConfig, rng Rand) (GameEvent, bool) {
	if cfg.EventChancePerWeek <= 0 {
		return GameEvent{}, false
	}
	if rng.Float64() > cfg.EventChancePerWeek {
		return GameEvent{}, false
	}

	var ev GameEvent
	roll := rng.Float64()
	switch {
	case roll < sicknessThreshold && len(studio.Employees) > 0:
		sick := studio.Employees[rng.Intn(len(studio.Employees))]
		sick.Fatigue = min(MaxFatigue, sick.Fatigue+SicknessFatigue)
		cost := sick.Salary
		if cost == 0 {
			cost = sicknessFallbackCost
		}
		ev = GameEvent{Name: EventSickness, Effect: -cost, Employee: sick.Name}
	case roll < contractThreshold:
		ev = GameEvent{Name: EventContractWork, Effect: ContractPayment}
	default:
		ev = GameEvent{Name: EventMarketCrisis, Effect: -MarketCrisisPenalty}
	}
	studio.Cash += ev.Effect
	return ev, true
}
