package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

type memSink map[string][]byte

func (m memSink) Save(_ context.Context, name string, blob []byte) error {
	m[name] = append([]byte(nil), blob...)
	return nil
}

func (m memSink) Load(_ context.Context, name string) ([]byte, error) {
	raw, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSaveNotFound, name)
	}
	return raw, nil
}

func buildSaveSimulation(cfg BalanceConfig) *Simulation {
	anna := &Employee{Name: "Anna", Role: RoleProgrammer, SkillCode: 6, SkillDesign: 3, SkillArt: 1, SkillSound: 1, Salary: 30}
	boris := &Employee{Name: "Boris", Role: RoleDesigner, SkillCode: 2, SkillDesign: 5, SkillArt: 2, SkillSound: 2, Salary: 25}
	vika := &Employee{Name: "Vika", Role: RoleArtist, SkillArt: 6, Salary: 20}
	quest := NewProject("Adventure Quest", "Adventure", "PC", 20)
	quest.Progress = 40
	quest.Assigned = []*Employee{boris, anna}
	shipped := NewProject("Tiny Arcade", "Arcade", "Mobile", 3)
	shipped.Status = StatusReleased
	shipped.Progress = 100
	shipped.Assigned = []*Employee{vika}

	studio := &Studio{
		Name:             "Save Test Studio",
		Cash:             800,
		Reputation:       3,
		Employees:        []*Employee{anna, boris, vika},
		Projects:         []*Project{quest},
		FinishedProjects: []*Project{shipped},
	}
	trend := &MarketTrend{TrendingGenres: []string{"Adventure"}, PopularPlatforms: []string{"PC", "Console"}}
	return NewSimulation(studio, trend, cfg, NewRand(77), nil)
}

func TestStateRoundTrip(t *testing.T) {
	cfg := DefaultBalance()
	cfg.EventChancePerWeek = 0.1
	cfg.RestRecoveryPerWeek = 8
	sim := buildSaveSimulation(cfg)
	for i := 0; i < 5; i++ {
		sim.RunStep()
	}

	raw, err := EncodeState(sim.ToState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	st, err := DecodeState(raw, DecodeOptions{Strict: true})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	restored := FromState(st, NewRand(1), nil)

	if !reflect.DeepEqual(sim.ToState(), restored.ToState()) {
		t.Fatalf("round trip changed state:\n%+v\n%+v", sim.ToState(), restored.ToState())
	}
	if restored.Week != 6 || restored.Studio.Cash != sim.Studio.Cash || restored.Balance.EventChancePerWeek != 0.1 {
		t.Fatalf("scalar fields lost: %+v", restored.Summary())
	}

	quest := restored.Studio.Projects[0]
	if len(quest.Assigned) != 2 || quest.Assigned[0] != restored.Studio.Employees[1] || quest.Assigned[1] != restored.Studio.Employees[0] {
		t.Fatalf("assignment topology lost: %+v", quest.Assigned)
	}
	if restored.Studio.FinishedProjects[0].Assigned[0] != restored.Studio.Employees[2] {
		t.Fatalf("finished project lost its team")
	}
}

func TestEncodeStateShape(t *testing.T) {
	sim := buildSaveSimulation(DefaultBalance())
	sim.Studio.Projects[0].Assigned = nil
	raw, err := EncodeState(sim.ToState())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"current_week", "current_year", "balance_config", "market_trend", "studio"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
	studio := doc["studio"].(map[string]any)
	project := studio["projects"].([]any)[0].(map[string]any)
	if assigned, ok := project["assigned_employees"].([]any); !ok || len(assigned) != 0 {
		t.Fatalf("assigned_employees should be an empty list, got %#v", project["assigned_employees"])
	}
	finished := studio["finished_projects"].([]any)[0].(map[string]any)
	if got := finished["assigned_employees"].([]any); len(got) != 1 || got[0].(float64) != 2 {
		t.Fatalf("expected index [2], got %v", got)
	}
	balance := doc["balance_config"].(map[string]any)
	if _, ok := balance["event_chance_per_week"]; !ok {
		t.Fatalf("balance config not flattened: %v", balance)
	}
}

func TestDecodeStateDefaults(t *testing.T) {
	st, err := DecodeState([]byte(`{"studio": {"employees": [{"name": "Nameless"}], "projects": [{"complexity": 2}]}, "balance_config": {"fatigue_per_week": 3}}`), DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sim := FromState(st, NewRand(1), nil)

	if sim.Week != 1 || sim.Year != 1 || sim.Studio.Cash != 0 || sim.Studio.Name != "Unnamed Studio" {
		t.Fatalf("unexpected defaults %+v", sim.Summary())
	}
	if sim.Studio.Employees[0].Role != RoleProgrammer {
		t.Fatalf("role default=%q", sim.Studio.Employees[0].Role)
	}
	p := sim.Studio.Projects[0]
	if p.Title != "Unnamed Project" || p.Status != StatusInDev {
		t.Fatalf("project defaults=%+v", p)
	}
	want := DefaultBalance()
	want.FatiguePerWeek = 3
	if sim.Balance != want {
		t.Fatalf("balance=%+v want %+v", sim.Balance, want)
	}
}

func TestDecodeStateKeepsExplicitEmptyValues(t *testing.T) {
	raw := []byte(`{"studio": {"name": "", "employees": [{"name": "Blank", "role": ""}], "projects": [{"title": "", "status": "", "complexity": 2}]}}`)
	st, err := DecodeState(raw, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Studio.Name != "" || st.Studio.Employees[0].Role != "" {
		t.Fatalf("empty values replaced: %+v", st.Studio)
	}
	if p := st.Studio.Projects[0]; p.Title != "" || p.Status != "" {
		t.Fatalf("empty project values replaced: %+v", p)
	}

	sim := FromState(st, NewRand(1), nil)
	if sim.Studio.Name != "" || sim.Studio.Employees[0].Role != "" {
		t.Fatalf("rebuild filled studio defaults: %+v", sim.Summary())
	}
	if p := sim.Studio.Projects[0]; p.Title != "" || p.Status != "" {
		t.Fatalf("rebuild filled project defaults: %+v", p)
	}
}

func TestDecodeStateDropsOutOfRangeIndices(t *testing.T) {
	raw := []byte(`{
		"current_week": 4,
		"studio": {
			"name": "Lossy",
			"employees": [{"name": "Anna", "role": "programmer"}],
			"projects": [{"title": "P", "complexity": 5, "status": "in_dev", "assigned_employees": [0, 3, -1, 0]}]
		}
	}`)

	st, err := DecodeState(raw, DecodeOptions{})
	if err != nil {
		t.Fatalf("permissive decode: %v", err)
	}
	sim := FromState(st, NewRand(1), nil)
	if got := sim.Studio.Projects[0].Assigned; len(got) != 1 || got[0] != sim.Studio.Employees[0] {
		t.Fatalf("expected only Anna to survive, got %+v", got)
	}

	if _, err := DecodeState(raw, DecodeOptions{Strict: true}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("strict decode should reject bad indices, got %v", err)
	}
}

func TestDecodeStateStrictRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":   `{"studio": {"name": "S"}, "bonus": 1}`,
		"unknown role":    `{"studio": {"name": "S", "employees": [{"name": "A", "role": "janitor"}]}}`,
		"fatigue range":   `{"studio": {"name": "S", "employees": [{"name": "A", "role": "sound", "fatigue": 120}]}}`,
		"zero complexity": `{"studio": {"name": "S", "projects": [{"title": "P", "status": "in_dev"}]}}`,
		"released active": `{"studio": {"name": "S", "projects": [{"title": "P", "complexity": 2, "status": "released"}]}}`,
		"week range":      `{"current_week": 53, "studio": {"name": "S"}}`,
	}
	for name, raw := range tests {
		if _, err := DecodeState([]byte(raw), DecodeOptions{Strict: true}); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("%s: expected ErrInvalidState, got %v", name, err)
		}
		if _, err := DecodeState([]byte(raw), DecodeOptions{}); err != nil {
			t.Fatalf("%s: permissive decode failed: %v", name, err)
		}
	}
}

func TestSaveAndLoadGame(t *testing.T) {
	ctx := context.Background()
	sink := memSink{}
	sim := buildSaveSimulation(DefaultBalance())

	if err := SaveGame(ctx, sink, "slot1", sim); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadGame(ctx, sink, "slot1", DecodeOptions{}, NewRand(1), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Studio.Cash != sim.Studio.Cash || loaded.Week != sim.Week || len(loaded.Studio.Projects) != 1 {
		t.Fatalf("loaded=%+v", loaded.Summary())
	}

	if _, err := LoadGame(ctx, sink, "missing", DecodeOptions{}, nil, nil); !errors.Is(err, ErrSaveNotFound) {
		t.Fatalf("expected ErrSaveNotFound, got %v", err)
	}
}

func TestFireSurvivesRoundTrip(t *testing.T) {
	sim := buildSaveSimulation(DefaultBalance())
	if _, err := sim.Studio.Fire(0); err != nil {
		t.Fatalf("fire: %v", err)
	}
	restored := FromState(sim.ToState(), NewRand(1), nil)

	quest := restored.Studio.Projects[0]
	if len(restored.Studio.Employees) != 2 || len(quest.Assigned) != 1 || quest.Assigned[0].Name != "Boris" {
		t.Fatalf("unexpected roster after fire: %+v", restored.Summary())
	}
	if restored.Studio.FinishedProjects[0].Assigned[0] != restored.Studio.Employees[1] {
		t.Fatalf("indices not rebuilt after fire")
	}
}
