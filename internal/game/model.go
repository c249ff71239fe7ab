package game

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

const (
	MaxFatigue  = 100
	MaxProgress = 100.0

	trendGenreMultiplier = 1.2
	qualityPerSkill      = 0.1
	progressPerPoint     = 10.0
)

var (
	ErrInvalidRole      = errors.New("unknown employee role")
	ErrInvalidEmployee  = errors.New("invalid employee")
	ErrInvalidProject   = errors.New("invalid project")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectNotActive = errors.New("project is not in development")
)

type Role string

const (
	RoleProgrammer Role = "programmer"
	RoleDesigner   Role = "designer"
	RoleArtist     Role = "artist"
	RoleSound      Role = "sound"
	RoleProducer   Role = "producer"
)

var Roles = []Role{RoleProgrammer, RoleDesigner, RoleArtist, RoleSound, RoleProducer}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Known() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

func (r Role) Known() bool {
	return slices.Contains(Roles, r)
}

// Skill names one of the four competence axes shared by employees and projects.
type Skill int

const (
	SkillCode Skill = iota
	SkillDesign
	SkillArt
	SkillSound
)

// roleFocus lists the skill each specialist grows on level up. Producers are
// absent on purpose: they grow every skill.
var roleFocus = map[Role]Skill{
	RoleProgrammer: SkillCode,
	RoleDesigner:   SkillDesign,
	RoleArtist:     SkillArt,
	RoleSound:      SkillSound,
}

type Status string

const (
	StatusInDev     Status = "in_dev"
	StatusReleased  Status = "released"
	StatusCancelled Status = "cancelled"
)

func (s Status) Known() bool {
	switch s {
	case StatusInDev, StatusReleased, StatusCancelled:
		return true
	default:
		return false
	}
}

// Contribution is the per-domain output of one week of work.
type Contribution struct {
	Code   float64 `json:"code"`
	Design float64 `json:"design"`
	Art    float64 `json:"art"`
	Sound  float64 `json:"sound"`
}

func (c Contribution) Sum() float64 {
	return c.Code + c.Design + c.Art + c.Sound
}

func (c Contribution) Of(skill Skill) float64 {
	switch skill {
	case SkillCode:
		return c.Code
	case SkillDesign:
		return c.Design
	case SkillArt:
		return c.Art
	default:
		return c.Sound
	}
}

type Employee struct {
	Name        string
	Role        Role
	SkillCode   int
	SkillDesign int
	SkillArt    int
	SkillSound  int
	Salary      int
	Fatigue     int
}

// WorkOnTask returns this week's contribution and then tires the employee.
// Fatigue lowers efficiency linearly but never below half.
func (e *Employee) WorkOnTask(fatigueIncrease int) Contribution {
	factor := math.Max(0.5, 1.0-float64(e.Fatigue)/100)
	out := Contribution{
		Code:   float64(e.SkillCode) * factor,
		Design: float64(e.SkillDesign) * factor,
		Art:    float64(e.SkillArt) * factor,
		Sound:  float64(e.SkillSound) * factor,
	}
	e.Fatigue = min(MaxFatigue, e.Fatigue+fatigueIncrease)
	return out
}

func (e *Employee) Rest(hours int) {
	e.Fatigue = max(0, e.Fatigue-hours)
}

func (e *Employee) LevelUp() {
	focus, ok := roleFocus[e.Role]
	if !ok {
		e.SkillCode++
		e.SkillDesign++
		e.SkillArt++
		e.SkillSound++
		return
	}
	switch focus {
	case SkillCode:
		e.SkillCode++
	case SkillDesign:
		e.SkillDesign++
	case SkillArt:
		e.SkillArt++
	case SkillSound:
		e.SkillSound++
	}
}

// primaryOutput maps a role to the part of its contribution that moves progress.
func primaryOutput(role Role, c Contribution) float64 {
	if focus, ok := roleFocus[role]; ok {
		return c.Of(focus)
	}
	if role == RoleProducer {
		return c.Sum() * 0.5
	}
	return c.Sum() * 0.25
}

type MarketTrend struct {
	TrendingGenres   []string
	PopularPlatforms []string
}

func (t *MarketTrend) IsTrendingGenre(genre string) bool {
	return t != nil && slices.Contains(t.TrendingGenres, genre)
}

func (t *MarketTrend) IsPopularPlatform(platform string) bool {
	return t != nil && slices.Contains(t.PopularPlatforms, platform)
}

func (t *MarketTrend) GenreMultiplier(genre string) float64 {
	if t.IsTrendingGenre(genre) {
		return trendGenreMultiplier
	}
	return 1.0
}

// UpdateTrends replaces either list when a new one is given and otherwise
// reverses it, so repeated calls without input rotate deterministically.
func (t *MarketTrend) UpdateTrends(genres, platforms []string) {
	if genres != nil {
		t.TrendingGenres = slices.Clone(genres)
	} else {
		slices.Reverse(t.TrendingGenres)
	}
	if platforms != nil {
		t.PopularPlatforms = slices.Clone(platforms)
	} else {
		slices.Reverse(t.PopularPlatforms)
	}
}

type Project struct {
	Title         string
	Genre         string
	Platform      string
	Complexity    int
	Progress      float64
	QualityCode   float64
	QualityDesign float64
	QualityArt    float64
	QualitySound  float64
	Status        Status
	Assigned      []*Employee
}

func NewProject(title, genre, platform string, complexity int) *Project {
	return &Project{
		Title:      title,
		Genre:      genre,
		Platform:   platform,
		Complexity: complexity,
		Status:     StatusInDev,
	}
}

func (p *Project) AverageQuality() float64 {
	return (p.QualityCode + p.QualityDesign + p.QualityArt + p.QualitySound) / 4
}

func (p *Project) IsAssigned(e *Employee) bool {
	return slices.Contains(p.Assigned, e)
}

func (p *Project) assign(e *Employee) {
	if !p.IsAssigned(e) {
		p.Assigned = append(p.Assigned, e)
	}
}

func (p *Project) unassign(e *Employee) {
	p.Assigned = slices.DeleteFunc(p.Assigned, func(x *Employee) bool { return x == e })
}

func (p *Project) ApplyEmployeeWork(e *Employee, trend *MarketTrend, fatigueIncrease int) {
	c := e.WorkOnTask(fatigueIncrease)
	primary := primaryOutput(e.Role, c)

	gain := (primary / float64(max(1, p.Complexity))) * progressPerPoint * trend.GenreMultiplier(p.Genre)
	p.Progress = math.Min(MaxProgress, p.Progress+gain)

	p.QualityCode += c.Code * qualityPerSkill
	p.QualityDesign += c.Design * qualityPerSkill
	p.QualityArt += c.Art * qualityPerSkill
	p.QualitySound += c.Sound * qualityPerSkill
}

func (p *Project) AdvanceWeek(trend *MarketTrend, fatigueIncrease int) {
	if p.Status != StatusInDev {
		return
	}
	for _, e := range p.Assigned {
		p.ApplyEmployeeWork(e, trend, fatigueIncrease)
	}
}

// Studio is the root aggregate. Employees are owned here; projects only hold
// pointers into Employees.
type Studio struct {
	Name             string
	Cash             int
	Reputation       int
	Employees        []*Employee
	Projects         []*Project
	FinishedProjects []*Project
}

func (s *Studio) Employee(index int) (*Employee, error) {
	if index < 0 || index >= len(s.Employees) {
		return nil, fmt.Errorf("%w: index %d", ErrEmployeeNotFound, index)
	}
	return s.Employees[index], nil
}

func (s *Studio) Project(index int) (*Project, error) {
	if index < 0 || index >= len(s.Projects) {
		return nil, fmt.Errorf("%w: index %d", ErrProjectNotFound, index)
	}
	return s.Projects[index], nil
}

func (s *Studio) Hire(e *Employee) error {
	if e == nil || strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}
	if !e.Role.Known() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, e.Role)
	}
	e.Fatigue = min(MaxFatigue, max(0, e.Fatigue))
	s.Employees = append(s.Employees, e)
	return nil
}

// Fire removes the employee from the roster and from every project that
// references them, active or archived.
func (s *Studio) Fire(index int) (*Employee, error) {
	e, err := s.Employee(index)
	if err != nil {
		return nil, err
	}
	s.Employees = slices.Delete(s.Employees, index, index+1)
	for _, p := range s.Projects {
		p.unassign(e)
	}
	for _, p := range s.FinishedProjects {
		p.unassign(e)
	}
	return e, nil
}

func (s *Studio) Train(index int) (*Employee, error) {
	e, err := s.Employee(index)
	if err != nil {
		return nil, err
	}
	e.LevelUp()
	return e, nil
}

func (s *Studio) CreateProject(title, genre, platform string, complexity int) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidProject)
	}
	if complexity <= 0 {
		return nil, fmt.Errorf("%w: complexity must be > 0", ErrInvalidProject)
	}
	p := NewProject(title, genre, platform, complexity)
	s.Projects = append(s.Projects, p)
	return p, nil
}

// Assign adds employees to an active project. Employees already on the
// project are left in place.
func (s *Studio) Assign(projectIndex int, employeeIndices []int) error {
	p, err := s.Project(projectIndex)
	if err != nil {
		return err
	}
	picked := make([]*Employee, 0, len(employeeIndices))
	for _, idx := range employeeIndices {
		e, err := s.Employee(idx)
		if err != nil {
			return err
		}
		picked = append(picked, e)
	}
	for _, e := range picked {
		p.assign(e)
	}
	return nil
}

func (s *Studio) Cancel(projectIndex int) (*Project, error) {
	p, err := s.Project(projectIndex)
	if err != nil {
		return nil, err
	}
	p.Status = StatusCancelled
	s.archive(p)
	return p, nil
}

// FinishProject archives an active project without scoring it and grants one
// point of reputation.
func (s *Studio) FinishProject(p *Project) error {
	if !slices.Contains(s.Projects, p) {
		return ErrProjectNotActive
	}
	p.Status = StatusReleased
	s.archive(p)
	s.Reputation++
	return nil
}

func (s *Studio) archive(p *Project) {
	s.Projects = slices.DeleteFunc(s.Projects, func(x *Project) bool { return x == p })
	s.FinishedProjects = append(s.FinishedProjects, p)
}

func (s *Studio) assignedToActive(e *Employee) bool {
	for _, p := range s.Projects {
		if p.IsAssigned(e) {
			return true
		}
	}
	return false
}
