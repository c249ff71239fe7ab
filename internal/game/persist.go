package game

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

const (
	defaultStudioName  = "Unnamed Studio"
	defaultProjectName = "Unnamed Project"
)

var (
	ErrSaveNotFound = errors.New("save not found")
	ErrInvalidState = errors.New("invalid simulation state")
)

// State is the flat document a simulation serializes to. Project to employee
// links are stored as indices into Studio.Employees.
type State struct {
	CurrentWeek   int           `json:"current_week"`
	CurrentYear   int           `json:"current_year"`
	BalanceConfig BalanceConfig `json:"balance_config"`
	MarketTrend   TrendState    `json:"market_trend"`
	Studio        StudioState   `json:"studio"`
}

type TrendState struct {
	TrendingGenres   []string `json:"trending_genres"`
	PopularPlatforms []string `json:"popular_platforms"`
}

type StudioState struct {
	Name             string          `json:"name"`
	Cash             int             `json:"cash"`
	Reputation       int             `json:"reputation"`
	Employees        []EmployeeState `json:"employees"`
	Projects         []ProjectState  `json:"projects"`
	FinishedProjects []ProjectState  `json:"finished_projects"`
}

type EmployeeState struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	SkillCode   int    `json:"skill_code"`
	SkillDesign int    `json:"skill_design"`
	SkillArt    int    `json:"skill_art"`
	SkillSound  int    `json:"skill_sound"`
	Salary      int    `json:"salary"`
	Fatigue     int    `json:"fatigue"`
}

type ProjectState struct {
	Title             string  `json:"title"`
	Genre             string  `json:"genre"`
	Platform          string  `json:"platform"`
	Complexity        int     `json:"complexity"`
	Progress          float64 `json:"progress"`
	QualityCode       float64 `json:"quality_code"`
	QualityDesign     float64 `json:"quality_design"`
	QualityArt        float64 `json:"quality_art"`
	QualitySound      float64 `json:"quality_sound"`
	Status            string  `json:"status"`
	AssignedEmployees []int   `json:"assigned_employees"`
}

type DecodeOptions struct {
	// Strict rejects unknown fields and out-of-range values instead of
	// falling back to defaults or dropping them.
	Strict bool
}

// BlobSink is the named read/write store saves go through. Load must return
// an error wrapping ErrSaveNotFound when nothing is stored under name.
type BlobSink interface {
	Save(ctx context.Context, name string, blob []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

func (s *Simulation) ToState() State {
	employees := make([]EmployeeState, 0, len(s.Studio.Employees))
	for _, e := range s.Studio.Employees {
		employees = append(employees, EmployeeState{
			Name:        e.Name,
			Role:        string(e.Role),
			SkillCode:   e.SkillCode,
			SkillDesign: e.SkillDesign,
			SkillArt:    e.SkillArt,
			SkillSound:  e.SkillSound,
			Salary:      e.Salary,
			Fatigue:     e.Fatigue,
		})
	}

	return State{
		CurrentWeek:   s.Week,
		CurrentYear:   s.Year,
		BalanceConfig: s.Balance,
		MarketTrend: TrendState{
			TrendingGenres:   append([]string{}, s.Trend.TrendingGenres...),
			PopularPlatforms: append([]string{}, s.Trend.PopularPlatforms...),
		},
		Studio: StudioState{
			Name:             s.Studio.Name,
			Cash:             s.Studio.Cash,
			Reputation:       s.Studio.Reputation,
			Employees:        employees,
			Projects:         projectStates(s.Studio.Projects, employees),
			FinishedProjects: projectStates(s.Studio.FinishedProjects, employees),
		},
	}
}

func projectStates(projects []*Project, employees []EmployeeState) []ProjectState {
	out := make([]ProjectState, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectState{
			Title:             p.Title,
			Genre:             p.Genre,
			Platform:          p.Platform,
			Complexity:        p.Complexity,
			Progress:          p.Progress,
			QualityCode:       p.QualityCode,
			QualityDesign:     p.QualityDesign,
			QualityArt:        p.QualityArt,
			QualitySound:      p.QualitySound,
			Status:            string(p.Status),
			AssignedEmployees: employeeIndices(p.Assigned, employees),
		})
	}
	return out
}

// employeeIndices resolves references by name and role; the first matching
// roster entry wins.
func employeeIndices(assigned []*Employee, employees []EmployeeState) []int {
	out := make([]int, 0, len(assigned))
	for _, e := range assigned {
		idx := slices.IndexFunc(employees, func(st EmployeeState) bool {
			return st.Name == e.Name && st.Role == string(e.Role)
		})
		if idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

// FromState rebuilds a simulation from the fields exactly as given.
// Assignment indices that point outside the roster are dropped.
func FromState(st State, rng Rand, logger *slog.Logger) *Simulation {
	employees := make([]*Employee, 0, len(st.Studio.Employees))
	for _, es := range st.Studio.Employees {
		employees = append(employees, &Employee{
			Name:        es.Name,
			Role:        Role(es.Role),
			SkillCode:   es.SkillCode,
			SkillDesign: es.SkillDesign,
			SkillArt:    es.SkillArt,
			SkillSound:  es.SkillSound,
			Salary:      es.Salary,
			Fatigue:     es.Fatigue,
		})
	}

	studio := &Studio{
		Name:             st.Studio.Name,
		Cash:             st.Studio.Cash,
		Reputation:       st.Studio.Reputation,
		Employees:        employees,
		Projects:         projectsFromState(st.Studio.Projects, employees),
		FinishedProjects: projectsFromState(st.Studio.FinishedProjects, employees),
	}
	trend := &MarketTrend{
		TrendingGenres:   append([]string{}, st.MarketTrend.TrendingGenres...),
		PopularPlatforms: append([]string{}, st.MarketTrend.PopularPlatforms...),
	}

	sim := NewSimulation(studio, trend, st.BalanceConfig, rng, logger)
	sim.Week = st.CurrentWeek
	sim.Year = st.CurrentYear
	return sim
}

func projectsFromState(states []ProjectState, employees []*Employee) []*Project {
	out := make([]*Project, 0, len(states))
	for _, ps := range states {
		p := &Project{
			Title:         ps.Title,
			Genre:         ps.Genre,
			Platform:      ps.Platform,
			Complexity:    ps.Complexity,
			Progress:      ps.Progress,
			QualityCode:   ps.QualityCode,
			QualityDesign: ps.QualityDesign,
			QualityArt:    ps.QualityArt,
			QualitySound:  ps.QualitySound,
			Status:        Status(ps.Status),
		}
		for _, idx := range ps.AssignedEmployees {
			if idx >= 0 && idx < len(employees) {
				p.assign(employees[idx])
			}
		}
		out = append(out, p)
	}
	return out
}

func EncodeState(st State) ([]byte, error) {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return raw, nil
}

// DecodeState parses a saved document. Absent calendar fields default to
// week 1 of year 1, an absent balance block (or absent keys inside it) to
// DefaultBalance. Absent role, title and status keys take their defaults;
// keys present with an empty value are kept as is.
func DecodeState(raw []byte, opts DecodeOptions) (State, error) {
	st := State{
		CurrentWeek:   1,
		CurrentYear:   1,
		BalanceConfig: DefaultBalance(),
		Studio:        StudioState{Name: defaultStudioName},
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if opts.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&st); err != nil {
		if opts.Strict {
			return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if err := applyMissingDefaults(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if opts.Strict {
		if err := st.Validate(); err != nil {
			return State{}, err
		}
	}
	return st, nil
}

// keyPresence mirrors the list shapes of State so a second pass can tell an
// absent key from one holding the zero value.
type keyPresence struct {
	Studio struct {
		Employees        []map[string]json.RawMessage `json:"employees"`
		Projects         []map[string]json.RawMessage `json:"projects"`
		FinishedProjects []map[string]json.RawMessage `json:"finished_projects"`
	} `json:"studio"`
}

func applyMissingDefaults(raw []byte, st *State) error {
	var seen keyPresence
	if err := json.Unmarshal(raw, &seen); err != nil {
		return err
	}
	for i, keys := range seen.Studio.Employees {
		if _, ok := keys["role"]; !ok && i < len(st.Studio.Employees) {
			st.Studio.Employees[i].Role = string(RoleProgrammer)
		}
	}
	fill := func(projects []ProjectState, present []map[string]json.RawMessage) {
		for i, keys := range present {
			if i >= len(projects) {
				return
			}
			if _, ok := keys["title"]; !ok {
				projects[i].Title = defaultProjectName
			}
			if _, ok := keys["status"]; !ok {
				projects[i].Status = string(StatusInDev)
			}
		}
	}
	fill(st.Studio.Projects, seen.Studio.Projects)
	fill(st.Studio.FinishedProjects, seen.Studio.FinishedProjects)
	return nil
}

// Validate reports every constraint a strictly loaded document must meet.
func (st State) Validate() error {
	var problems []string
	if st.CurrentWeek < 1 || st.CurrentWeek > WeeksPerYear {
		problems = append(problems, fmt.Sprintf("current_week %d out of range", st.CurrentWeek))
	}
	if st.CurrentYear < 1 {
		problems = append(problems, fmt.Sprintf("current_year %d out of range", st.CurrentYear))
	}
	for i, e := range st.Studio.Employees {
		if strings.TrimSpace(e.Name) == "" {
			problems = append(problems, fmt.Sprintf("employees[%d]: name is empty", i))
		}
		if !Role(e.Role).Known() {
			problems = append(problems, fmt.Sprintf("employees[%d]: unknown role %q", i, e.Role))
		}
		if e.Fatigue < 0 || e.Fatigue > MaxFatigue {
			problems = append(problems, fmt.Sprintf("employees[%d]: fatigue %d out of range", i, e.Fatigue))
		}
	}
	check := func(list string, projects []ProjectState, allowed ...Status) {
		for i, p := range projects {
			if strings.TrimSpace(p.Title) == "" {
				problems = append(problems, fmt.Sprintf("%s[%d]: title is empty", list, i))
			}
			if p.Complexity <= 0 {
				problems = append(problems, fmt.Sprintf("%s[%d]: complexity must be > 0", list, i))
			}
			if p.Progress < 0 || p.Progress > MaxProgress {
				problems = append(problems, fmt.Sprintf("%s[%d]: progress %.2f out of range", list, i, p.Progress))
			}
			if !slices.Contains(allowed, Status(p.Status)) {
				problems = append(problems, fmt.Sprintf("%s[%d]: status %q not allowed", list, i, p.Status))
			}
			for _, idx := range p.AssignedEmployees {
				if idx < 0 || idx >= len(st.Studio.Employees) {
					problems = append(problems, fmt.Sprintf("%s[%d]: employee index %d out of range", list, i, idx))
				}
			}
		}
	}
	check("projects", st.Studio.Projects, StatusInDev)
	check("finished_projects", st.Studio.FinishedProjects, StatusReleased, StatusCancelled)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidState, strings.Join(problems, "; "))
	}
	return nil
}

func SaveGame(ctx context.Context, sink BlobSink, name string, sim *Simulation) error {
	raw, err := EncodeState(sim.ToState())
	if err != nil {
		return err
	}
	if err := sink.Save(ctx, name, raw); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	return nil
}

// LoadGame never hides a missing save: the returned error wraps
// ErrSaveNotFound.
func LoadGame(ctx context.Context, sink BlobSink, name string, opts DecodeOptions, rng Rand, logger *slog.Logger) (*Simulation, error) {
	raw, err := sink.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	st, err := DecodeState(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return FromState(st, rng, logger), nil
}
