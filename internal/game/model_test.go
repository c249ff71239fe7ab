package game

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWorkOnTaskAndRest(t *testing.T) {
	e := &Employee{Name: "Boris", Role: RoleDesigner, SkillCode: 3, SkillDesign: 5, SkillArt: 2, SkillSound: 1, Salary: 40}

	c := e.WorkOnTask(10)
	if !approx(c.Design, 5) || !approx(c.Code, 3) {
		t.Fatalf("unexpected contribution %+v", c)
	}
	if e.Fatigue != 10 {
		t.Fatalf("fatigue=%d want 10", e.Fatigue)
	}

	e.Rest(6)
	if e.Fatigue != 4 {
		t.Fatalf("fatigue=%d want 4", e.Fatigue)
	}
	e.Rest(100)
	if e.Fatigue != 0 {
		t.Fatalf("fatigue=%d want 0", e.Fatigue)
	}
}

func TestWorkOnTaskFatigueBounds(t *testing.T) {
	tests := []struct {
		fatigue     int
		increase    int
		wantCode    float64
		wantFatigue int
	}{
		{fatigue: 0, increase: 10, wantCode: 10, wantFatigue: 10},
		{fatigue: 30, increase: 10, wantCode: 7, wantFatigue: 40},
		{fatigue: 80, increase: 30, wantCode: 5, wantFatigue: 100},
		{fatigue: 100, increase: 10, wantCode: 5, wantFatigue: 100},
	}
	for _, tc := range tests {
		e := &Employee{Role: RoleProgrammer, SkillCode: 10, Fatigue: tc.fatigue}
		c := e.WorkOnTask(tc.increase)
		if !approx(c.Code, tc.wantCode) {
			t.Fatalf("fatigue=%d code=%v want %v", tc.fatigue, c.Code, tc.wantCode)
		}
		if e.Fatigue != tc.wantFatigue {
			t.Fatalf("fatigue=%d after work got %d want %d", tc.fatigue, e.Fatigue, tc.wantFatigue)
		}
	}
}

func TestLevelUp(t *testing.T) {
	tests := []struct {
		role Role
		want [4]int
	}{
		{RoleProgrammer, [4]int{2, 1, 1, 1}},
		{RoleDesigner, [4]int{1, 2, 1, 1}},
		{RoleArtist, [4]int{1, 1, 2, 1}},
		{RoleSound, [4]int{1, 1, 1, 2}},
		{RoleProducer, [4]int{2, 2, 2, 2}},
	}
	for _, tc := range tests {
		e := &Employee{Role: tc.role, SkillCode: 1, SkillDesign: 1, SkillArt: 1, SkillSound: 1}
		e.LevelUp()
		got := [4]int{e.SkillCode, e.SkillDesign, e.SkillArt, e.SkillSound}
		if got != tc.want {
			t.Fatalf("role=%s got %v want %v", tc.role, got, tc.want)
		}
	}
}

func TestApplyEmployeeWork(t *testing.T) {
	trend := &MarketTrend{TrendingGenres: []string{"Strategy"}}

	tests := []struct {
		name         string
		role         Role
		skills       [4]int
		genre        string
		complexity   int
		startAt      float64
		wantProgress float64
	}{
		{name: "programmer on trending genre", role: RoleProgrammer, skills: [4]int{10, 1, 1, 1}, genre: "Strategy", complexity: 10, wantProgress: 12},
		{name: "programmer off trend", role: RoleProgrammer, skills: [4]int{10, 1, 1, 1}, genre: "Puzzle", complexity: 10, wantProgress: 10},
		{name: "producer uses half the total", role: RoleProducer, skills: [4]int{4, 4, 4, 4}, genre: "Puzzle", complexity: 4, wantProgress: 20},
		{name: "unknown role uses a quarter", role: Role("intern"), skills: [4]int{4, 4, 4, 4}, genre: "Puzzle", complexity: 2, wantProgress: 20},
		{name: "zero complexity floors at one", role: RoleSound, skills: [4]int{0, 0, 0, 3}, genre: "Puzzle", complexity: 0, wantProgress: 30},
		{name: "progress clamps at 100", role: RoleProgrammer, skills: [4]int{10, 1, 1, 1}, genre: "Strategy", complexity: 10, startAt: 95, wantProgress: 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &Employee{Name: "x", Role: tc.role, SkillCode: tc.skills[0], SkillDesign: tc.skills[1], SkillArt: tc.skills[2], SkillSound: tc.skills[3]}
			p := NewProject("Space Saga", tc.genre, "PC", tc.complexity)
			p.Progress = tc.startAt

			p.ApplyEmployeeWork(e, trend, 10)

			if !approx(p.Progress, tc.wantProgress) {
				t.Fatalf("progress=%v want %v", p.Progress, tc.wantProgress)
			}
			if !approx(p.QualityCode, float64(tc.skills[0])*0.1) || !approx(p.QualitySound, float64(tc.skills[3])*0.1) {
				t.Fatalf("unexpected quality %+v", p)
			}
		})
	}
}

func TestAdvanceWeekSkipsInactiveProjects(t *testing.T) {
	e := &Employee{Name: "Vika", Role: RoleProgrammer, SkillCode: 10}
	p := NewProject("Space Saga", "Strategy", "PC", 10)
	p.Assigned = []*Employee{e}
	p.Status = StatusCancelled

	p.AdvanceWeek(nil, 10)
	if p.Progress != 0 || e.Fatigue != 0 {
		t.Fatalf("cancelled project should not advance: progress=%v fatigue=%d", p.Progress, e.Fatigue)
	}

	p.Status = StatusInDev
	p.AdvanceWeek(nil, 10)
	if p.Progress <= 0 || p.QualityCode <= 0 || e.Fatigue != 10 {
		t.Fatalf("in-dev project should advance: progress=%v quality=%v fatigue=%d", p.Progress, p.QualityCode, e.Fatigue)
	}
}

func newTestStudio() *Studio {
	anna := &Employee{Name: "Anna", Role: RoleProgrammer, SkillCode: 6, Salary: 30}
	boris := &Employee{Name: "Boris", Role: RoleDesigner, SkillDesign: 5, Salary: 25}
	active := NewProject("Adventure Quest", "Adventure", "PC", 20)
	active.Assigned = []*Employee{anna, boris}
	shipped := NewProject("Arcade", "Arcade", "PC", 5)
	shipped.Status = StatusReleased
	shipped.Assigned = []*Employee{anna}
	return &Studio{
		Name:             "Test Studio",
		Cash:             800,
		Reputation:       3,
		Employees:        []*Employee{anna, boris},
		Projects:         []*Project{active},
		FinishedProjects: []*Project{shipped},
	}
}

func TestFireRemovesEveryReference(t *testing.T) {
	s := newTestStudio()
	anna := s.Employees[0]

	fired, err := s.Fire(0)
	if err != nil {
		t.Fatalf("fire: %v", err)
	}
	if fired != anna {
		t.Fatalf("fired the wrong employee: %s", fired.Name)
	}
	if slices.Contains(s.Employees, anna) {
		t.Fatalf("employee still on roster")
	}
	for _, p := range append(slices.Clone(s.Projects), s.FinishedProjects...) {
		if p.IsAssigned(anna) {
			t.Fatalf("employee still assigned to %s", p.Title)
		}
	}
	if len(s.Projects[0].Assigned) != 1 || s.Projects[0].Assigned[0].Name != "Boris" {
		t.Fatalf("other assignments should stay: %+v", s.Projects[0].Assigned)
	}

	if _, err := s.Fire(5); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestAssignUsesSetSemantics(t *testing.T) {
	s := newTestStudio()
	if err := s.Assign(0, []int{0, 1, 1}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got := len(s.Projects[0].Assigned); got != 2 {
		t.Fatalf("assigned=%d want 2", got)
	}

	p, err := s.CreateProject("Puzzle Box", "Puzzle", "Mobile", 8)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := s.Assign(1, []int{1, 7}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if len(p.Assigned) != 0 {
		t.Fatalf("failed assign must not partially apply")
	}
	if err := s.Assign(3, []int{0}); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestHireAndCreateProjectValidation(t *testing.T) {
	s := &Studio{Name: "Empty"}
	if err := s.Hire(&Employee{Name: "Kim", Role: Role("janitor")}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := s.Hire(&Employee{Name: " ", Role: RoleSound}); !errors.Is(err, ErrInvalidEmployee) {
		t.Fatalf("expected ErrInvalidEmployee, got %v", err)
	}
	if err := s.Hire(&Employee{Name: "Kim", Role: RoleSound, Fatigue: 140}); err != nil {
		t.Fatalf("hire: %v", err)
	}
	if s.Employees[0].Fatigue != MaxFatigue {
		t.Fatalf("fatigue should be clamped on hire, got %d", s.Employees[0].Fatigue)
	}
	if _, err := s.CreateProject("Zero", "RPG", "PC", 0); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject, got %v", err)
	}
	if _, err := s.CreateProject("", "RPG", "PC", 3); !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("expected ErrInvalidProject for blank title, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Producer "); err != nil || r != RoleProducer {
		t.Fatalf("got %q, %v", r, err)
	}
	if _, err := ParseRole("janitor"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCancelAndFinishProject(t *testing.T) {
	s := newTestStudio()
	p := s.Projects[0]

	if err := s.FinishProject(p); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if s.Reputation != 4 || p.Status != StatusReleased || len(s.Projects) != 0 {
		t.Fatalf("unexpected studio after finish: rep=%d status=%s active=%d", s.Reputation, p.Status, len(s.Projects))
	}
	if err := s.FinishProject(p); !errors.Is(err, ErrProjectNotActive) {
		t.Fatalf("expected ErrProjectNotActive, got %v", err)
	}

	q, _ := s.CreateProject("Doomed", "Horror", "PC", 30)
	cancelled, err := s.Cancel(0)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled != q || q.Status != StatusCancelled || s.FinishedProjects[len(s.FinishedProjects)-1] != q {
		t.Fatalf("cancelled project should be archived")
	}
	if s.Reputation != 4 {
		t.Fatalf("cancel must not change reputation")
	}
}

func TestUpdateTrends(t *testing.T) {
	trend := &MarketTrend{TrendingGenres: []string{"RPG", "Strategy"}, PopularPlatforms: []string{"PC", "Console"}}

	trend.UpdateTrends(nil, nil)
	if !slices.Equal(trend.TrendingGenres, []string{"Strategy", "RPG"}) || !slices.Equal(trend.PopularPlatforms, []string{"Console", "PC"}) {
		t.Fatalf("expected reversed lists, got %+v", trend)
	}

	genres := []string{"Puzzle"}
	trend.UpdateTrends(genres, nil)
	genres[0] = "mutated"
	if !slices.Equal(trend.TrendingGenres, []string{"Puzzle"}) {
		t.Fatalf("expected replaced copy, got %v", trend.TrendingGenres)
	}
	if trend.GenreMultiplier("Puzzle") != 1.2 || trend.GenreMultiplier("RPG") != 1.0 {
		t.Fatalf("unexpected multipliers")
	}
}
