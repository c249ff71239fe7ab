package game

import (
	"log/slog"
	"math"
	"slices"
)

const WeeksPerYear = 52

// Simulation owns one studio plus the calendar. It is not safe for
// concurrent use: callers must not mutate the studio while RunStep is running.
type Simulation struct {
	Studio  *Studio
	Trend   *MarketTrend
	Balance BalanceConfig
	Week    int
	Year    int

	rng Rand
	log *slog.Logger
}

type StepReport struct {
	Week          int             `json:"week"`
	Year          int             `json:"year"`
	SalariesPaid  int             `json:"salaries_paid"`
	IdleRecovered []string        `json:"idle_recovered"`
	Event         *GameEvent      `json:"event,omitempty"`
	Releases      []ReleaseResult `json:"releases"`
}

type Summary struct {
	Week             int      `json:"week"`
	Year             int      `json:"year"`
	Cash             int      `json:"cash"`
	Reputation       int      `json:"reputation"`
	ActiveProjects   []string `json:"active_projects"`
	FinishedProjects []string `json:"finished_projects"`
	Employees        []string `json:"employees"`
}

func NewSimulation(studio *Studio, trend *MarketTrend, cfg BalanceConfig, rng Rand, logger *slog.Logger) *Simulation {
	if trend == nil {
		trend = &MarketTrend{}
	}
	if rng == nil {
		rng = defaultRand()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulation{
		Studio:  studio,
		Trend:   trend,
		Balance: cfg,
		Week:    1,
		Year:    1,
		rng:     rng,
		log:     logger,
	}
}

// NewDefaultSimulation builds the starter studio: three hires, one RPG in
// development staffed by the first two.
func NewDefaultSimulation(cfg BalanceConfig, rng Rand, logger *slog.Logger) *Simulation {
	employees := []*Employee{
		{Name: "Anna", Role: RoleProgrammer, SkillCode: 6, SkillDesign: 3, SkillArt: 2, SkillSound: 1, Salary: 25},
		{Name: "Boris", Role: RoleDesigner, SkillCode: 2, SkillDesign: 5, SkillArt: 2, SkillSound: 1, Salary: 22},
		{Name: "Vika", Role: RoleArtist, SkillCode: 1, SkillDesign: 2, SkillArt: 6, SkillSound: 1, Salary: 20},
	}
	project := NewProject("RPG Dream", "RPG", "PC", 40)
	project.Assigned = append(project.Assigned, employees[:2]...)

	studio := &Studio{
		Name:       "Indie Sparks",
		Cash:       1500,
		Reputation: 2,
		Employees:  employees,
		Projects:   []*Project{project},
	}
	trend := &MarketTrend{TrendingGenres: []string{"RPG", "Strategy"}, PopularPlatforms: []string{"PC"}}
	return NewSimulation(studio, trend, cfg, rng, logger)
}

// RunStep advances the simulation by one week.
func (s *Simulation) RunStep() StepReport {
	report := StepReport{Week: s.Week, Year: s.Year}

	report.SalariesPaid = s.paySalaries()
	report.IdleRecovered = s.advanceProjects()
	s.applyMarketTrends()
	if ev, ok := RollWeeklyEvent(s.Studio, s.Balance, s.rng); ok {
		s.log.Info("studio event", "event", ev.Name, "effect", ev.Effect, "employee", ev.Employee)
		report.Event = &ev
	}
	report.Releases = s.checkReleases()
	s.advanceCalendar()

	s.log.Debug("week simulated", "week", report.Week, "year", report.Year, "cash", s.Studio.Cash, "reputation", s.Studio.Reputation)
	return report
}

// ReleaseGame scores, sells and archives an active project. Releasing a
// project that is not in the active list returns ErrProjectNotActive.
func (s *Simulation) ReleaseGame(p *Project) (ReleaseResult, error) {
	if p == nil || !slices.Contains(s.Studio.Projects, p) {
		return ReleaseResult{}, ErrProjectNotActive
	}

	score := CalculateGameScore(p, s.Trend, s.Studio, s.Balance, s.rng)
	income := CalculateSales(score, ReleaseBasePrice, ReleaseMarketSize, s.Balance, s.rng)
	reviews := GenerateReviews(score, s.rng)
	gain := reputationGain(score)

	s.Studio.Cash += income
	s.Studio.Reputation += gain
	p.Status = StatusReleased
	s.Studio.archive(p)

	s.log.Info("game released", "title", p.Title, "score", math.Round(score*10)/10, "income", income, "reputation_gain", gain)
	return ReleaseResult{
		Title:          p.Title,
		Score:          score,
		Reviews:        reviews,
		Units:          income / ReleaseBasePrice,
		Income:         income,
		ReputationGain: gain,
	}, nil
}

func (s *Simulation) Forecast(p *Project) ReleaseResult {
	return ForecastRelease(p, s.Studio, s.Trend, s.Balance, s.rng)
}

func (s *Simulation) Summary() Summary {
	out := Summary{
		Week:             s.Week,
		Year:             s.Year,
		Cash:             s.Studio.Cash,
		Reputation:       s.Studio.Reputation,
		ActiveProjects:   make([]string, 0, len(s.Studio.Projects)),
		FinishedProjects: make([]string, 0, len(s.Studio.FinishedProjects)),
		Employees:        make([]string, 0, len(s.Studio.Employees)),
	}
	for _, p := range s.Studio.Projects {
		out.ActiveProjects = append(out.ActiveProjects, p.Title)
	}
	for _, p := range s.Studio.FinishedProjects {
		out.FinishedProjects = append(out.FinishedProjects, p.Title)
	}
	for _, e := range s.Studio.Employees {
		out.Employees = append(out.Employees, e.Name)
	}
	return out
}

// WeekIndex counts weeks since the start of year 0, so it grows by one per
// RunStep across year boundaries.
func (s *Simulation) WeekIndex() int64 {
	return int64(s.Year)*WeeksPerYear + int64(s.Week)
}

// Reseed swaps the random source, typically after a load so draws depend on
// the calendar instead of repeating from a fixed seed.
func (s *Simulation) Reseed(rng Rand) {
	if rng == nil {
		rng = defaultRand()
	}
	s.rng = rng
}

func (s *Simulation) UpdateTrends(genres, platforms []string) {
	s.Trend.UpdateTrends(genres, platforms)
}

func (s *Simulation) paySalaries() int {
	total := 0
	for _, e := range s.Studio.Employees {
		total += s.Balance.WeeklyWage(e)
	}
	s.Studio.Cash -= total
	return total
}

func (s *Simulation) advanceProjects() []string {
	for _, p := range slices.Clone(s.Studio.Projects) {
		if p.Status == StatusInDev {
			p.AdvanceWeek(s.Trend, s.Balance.FatiguePerWeek)
		}
	}

	recovered := []string{}
	for _, e := range s.Studio.Employees {
		if s.Studio.assignedToActive(e) {
			continue
		}
		e.Rest(s.Balance.RestRecoveryPerWeek)
		recovered = append(recovered, e.Name)
	}
	return recovered
}

func (s *Simulation) applyMarketTrends() {
	for _, p := range s.Studio.Projects {
		if p.Status != StatusInDev || !s.Trend.IsTrendingGenre(p.Genre) {
			continue
		}
		p.Progress = math.Min(MaxProgress, p.Progress+s.Balance.TrendGenreBonus*2)
	}
}

func (s *Simulation) checkReleases() []ReleaseResult {
	out := []ReleaseResult{}
	for _, p := range slices.Clone(s.Studio.Projects) {
		if p.Status != StatusInDev || p.Progress < MaxProgress {
			continue
		}
		res, err := s.ReleaseGame(p)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

func (s *Simulation) advanceCalendar() {
	s.Week++
	if s.Week > WeeksPerYear {
		s.Week = 1
		s.Year++
	}
}
