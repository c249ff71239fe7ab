package game

import (
	"fmt"
	"math"
	"strings"
)

const (
	ReleaseBasePrice  = 30
	ReleaseMarketSize = 50_000

	reputationScoreFactor = 0.02
	reputationGainStep    = 20.0
	salesDemandExponent   = 1.4
	salesMinDemand        = 0.05
	salesVarianceLow      = 0.9
	salesVarianceHigh     = 1.1
	minReviews            = 3
	maxReviews            = 7
)

// BalanceConfig is the flat set of tuning knobs for one simulation run.
type BalanceConfig struct {
	BaseSalaryProgrammer        int     `json:"base_salary_programmer" yaml:"base_salary_programmer"`
	BaseSalaryDesigner          int     `json:"base_salary_designer" yaml:"base_salary_designer"`
	BaseSalaryArtist            int     `json:"base_salary_artist" yaml:"base_salary_artist"`
	BaseSalarySound             int     `json:"base_salary_sound" yaml:"base_salary_sound"`
	BaseSalaryProducer          int     `json:"base_salary_producer" yaml:"base_salary_producer"`
	BaseProjectIncomeMultiplier float64 `json:"base_project_income_multiplier" yaml:"base_project_income_multiplier"`
	TrendGenreBonus             float64 `json:"trend_genre_bonus" yaml:"trend_genre_bonus"`
	TrendPlatformBonus          float64 `json:"trend_platform_bonus" yaml:"trend_platform_bonus"`
	RandomScoreDeviation        float64 `json:"random_score_deviation" yaml:"random_score_deviation"`
	FatiguePerWeek              int     `json:"fatigue_per_week" yaml:"fatigue_per_week"`
	RestRecoveryPerWeek         int     `json:"rest_recovery_per_week" yaml:"rest_recovery_per_week"`
	EventChancePerWeek          float64 `json:"event_chance_per_week" yaml:"event_chance_per_week"`
}

func DefaultBalance() BalanceConfig {
	return BalanceConfig{
		BaseSalaryProgrammer:        25,
		BaseSalaryDesigner:          22,
		BaseSalaryArtist:            20,
		BaseSalarySound:             20,
		BaseSalaryProducer:          30,
		BaseProjectIncomeMultiplier: 1.0,
		TrendGenreBonus:             0.2,
		TrendPlatformBonus:          0.1,
		RandomScoreDeviation:        5.0,
		FatiguePerWeek:              10,
		RestRecoveryPerWeek:         5,
		EventChancePerWeek:          0.25,
	}
}

// CasualBalance pays more per sale and tires people slower.
func CasualBalance() BalanceConfig {
	cfg := DefaultBalance()
	cfg.BaseProjectIncomeMultiplier = 1.25
	cfg.RandomScoreDeviation = 3.0
	cfg.FatiguePerWeek = 6
	cfg.RestRecoveryPerWeek = 8
	cfg.EventChancePerWeek = 0.15
	return cfg
}

func HardBalance() BalanceConfig {
	cfg := DefaultBalance()
	cfg.BaseSalaryProgrammer = 32
	cfg.BaseSalaryDesigner = 28
	cfg.BaseSalaryArtist = 26
	cfg.BaseSalarySound = 26
	cfg.BaseSalaryProducer = 38
	cfg.BaseProjectIncomeMultiplier = 0.8
	cfg.RandomScoreDeviation = 8.0
	cfg.FatiguePerWeek = 14
	cfg.RestRecoveryPerWeek = 4
	cfg.EventChancePerWeek = 0.35
	return cfg
}

func BalancePreset(name string) (BalanceConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultBalance(), nil
	case "casual":
		return CasualBalance(), nil
	case "hard":
		return HardBalance(), nil
	default:
		return BalanceConfig{}, fmt.Errorf("unknown balance preset %q", name)
	}
}

// BaseSalary is the fallback wage for a role. Unknown roles are paid as
// programmers.
func (c BalanceConfig) BaseSalary(role Role) int {
	switch role {
	case RoleDesigner:
		return c.BaseSalaryDesigner
	case RoleArtist:
		return c.BaseSalaryArtist
	case RoleSound:
		return c.BaseSalarySound
	case RoleProducer:
		return c.BaseSalaryProducer
	default:
		return c.BaseSalaryProgrammer
	}
}

func (c BalanceConfig) WeeklyWage(e *Employee) int {
	if e.Salary != 0 {
		return e.Salary
	}
	return c.BaseSalary(e.Role)
}

func CalculateGameScore(p *Project, trend *MarketTrend, studio *Studio, cfg BalanceConfig, rng Rand) float64 {
	score := p.AverageQuality()
	if trend.IsTrendingGenre(p.Genre) {
		score *= 1 + cfg.TrendGenreBonus
	}
	if trend.IsPopularPlatform(p.Platform) {
		score *= 1 + cfg.TrendPlatformBonus
	}
	reputation := 0
	if studio != nil {
		reputation = studio.Reputation
	}
	score *= 1 + float64(reputation)*reputationScoreFactor

	jitter := uniform(rng, -cfg.RandomScoreDeviation, cfg.RandomScoreDeviation)
	return math.Max(0, math.Min(100, score+jitter))
}

var (
	negativeReviews = []string{
		"Dull and unfinished.",
		"We expected a lot more from this one.",
		"Poor optimization ruins the experience.",
		"The game design leaves much to be desired.",
	}
	neutralReviews = []string{
		"There is potential, but it falls short.",
		"A solid middle-of-the-road title with no surprises.",
		"Some ideas shine, but the rough edges pile up.",
		"It will find its audience, but won't wow everyone.",
	}
	positiveReviews = []string{
		"Fresh and gripping, a great release!",
		"A hit! Hard to put down.",
		"Balance, gameplay and presentation are all top notch.",
		"A textbook example of how to do the genre right.",
	}
)

func reviewPool(score float64) []string {
	switch {
	case score < 40:
		return negativeReviews
	case score < 70:
		return neutralReviews
	default:
		return positiveReviews
	}
}

// GenerateReviews draws 3 to 7 press lines from the bucket matching score.
// Each line appears at most twice.
func GenerateReviews(score float64, rng Rand) []string {
	count := minReviews + rng.Intn(maxReviews-minReviews+1)
	pool := reviewPool(score)
	deck := make([]string, 0, len(pool)*2)
	deck = append(deck, pool...)
	deck = append(deck, pool...)
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck[:min(count, len(deck))]
}

func unitsSold(score float64, marketSize int, cfg BalanceConfig, rng Rand) int {
	normalized := math.Max(0, score) / 50
	demand := math.Max(salesMinDemand, math.Pow(normalized, salesDemandExponent))
	potential := float64(marketSize) * demand * cfg.BaseProjectIncomeMultiplier
	variance := uniform(rng, salesVarianceLow, salesVarianceHigh)
	return max(0, int(potential*variance))
}

// CalculateSales returns revenue, not units.
func CalculateSales(score float64, basePrice, marketSize int, cfg BalanceConfig, rng Rand) int {
	return unitsSold(score, marketSize, cfg, rng) * basePrice
}

func reputationGain(score float64) int {
	return max(1, int(math.Floor(score/reputationGainStep)))
}

type ReleaseResult struct {
	Title          string   `json:"title"`
	Score          float64  `json:"score"`
	Reviews        []string `json:"reviews"`
	Units          int      `json:"units"`
	Income         int      `json:"income"`
	ReputationGain int      `json:"reputation_gain"`
}

// ForecastRelease scores a project as if it shipped today without touching
// the studio. It still consumes randomness from rng.
func ForecastRelease(p *Project, studio *Studio, trend *MarketTrend, cfg BalanceConfig, rng Rand) ReleaseResult {
	score := CalculateGameScore(p, trend, studio, cfg, rng)
	reviews := GenerateReviews(score, rng)
	income := CalculateSales(score, ReleaseBasePrice, ReleaseMarketSize, cfg, rng)
	return ReleaseResult{
		Title:          p.Title,
		Score:          score,
		Reviews:        reviews,
		Units:          income / ReleaseBasePrice,
		Income:         income,
		ReputationGain: reputationGain(score),
	}
}
