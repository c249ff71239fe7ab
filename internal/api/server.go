package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"studiosim/internal/config"
	"studiosim/internal/game"
	"studiosim/internal/random"
	"studiosim/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxStepWeeks = 520

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	sink    game.BlobSink
	balance game.BalanceConfig
	feed    *Hub
	mux     *chi.Mux

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	created map[string]string
}

func New(cfg config.APIConfig, logger *slog.Logger, sink game.BlobSink, balance game.BalanceConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		sink:    sink,
		balance: balance,
		feed:    NewHub(logger),
		mux:     chi.NewRouter(),
		locks:   map[string]*sync.Mutex{},
		created: map[string]string{},
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// RunFeed drives the websocket hub until ctx is cancelled.
func (s *Server) RunFeed(ctx context.Context) {
	s.feed.Run(ctx)
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1/games", func(r chi.Router) {
		// The feed is long-lived, so it sits outside the request timeout.
		r.Get("/{id}/feed", s.handleFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/", s.handleCreateGame)
			r.Get("/{id}", s.handleSummary)
			r.Get("/{id}/state", s.handleState)
			r.Post("/{id}/step", s.handleStep)
			r.Post("/{id}/projects", s.handleCreateProject)
			r.Post("/{id}/projects/{index}/assign", s.handleAssign)
			r.Post("/{id}/projects/{index}/release", s.handleRelease)
			r.Post("/{id}/employees", s.handleHire)
			r.Delete("/{id}/employees/{index}", s.handleFire)
			r.Post("/{id}/employees/{index}/train", s.handleTrain)
		})
	})
}

// lock serializes commands against one game id and returns the unlock func.
func (s *Server) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// load reads the latest save for id. Nothing is cached between requests, so
// saves written by the worker or the CLI are always picked up.
func (s *Server) load(ctx context.Context, id string) (*game.Simulation, error) {
	sim, err := game.LoadGame(ctx, s.sink, id, game.DecodeOptions{}, nil, s.log.With("game_id", id))
	if err != nil {
		return nil, err
	}
	seed, err := random.ForTick(s.cfg.Game.Seed, sim.WeekIndex())
	if err != nil {
		return nil, err
	}
	sim.Reseed(game.NewRand(seed))
	return sim, nil
}

// mutate loads the game under its lock, runs fn and persists the result when
// fn succeeds. A failed save leaves the stored game untouched.
func (s *Server) mutate(r *http.Request, fn func(sim *game.Simulation) (any, error)) (any, error) {
	id := chi.URLParam(r, "id")
	defer s.lock(id)()

	sim, err := s.load(r.Context(), id)
	if err != nil {
		return nil, err
	}
	out, err := fn(sim)
	if err != nil {
		return nil, err
	}
	if err := game.SaveGame(r.Context(), s.sink, id, sim); err != nil {
		s.log.Error("persist game failed", "game_id", id, "err", err)
		return nil, err
	}
	return out, nil
}

func (s *Server) read(r *http.Request, fn func(sim *game.Simulation) any) (any, error) {
	id := chi.URLParam(r, "id")
	defer s.lock(id)()

	sim, err := s.load(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return fn(sim), nil
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StudioName string `json:"studio_name"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Keyed creates hold the key lock until the save lands, so a retry racing
	// the first request waits and then sees its id.
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		defer s.lock("idempotency:" + key)()
		s.mu.Lock()
		id, ok := s.created[key]
		s.mu.Unlock()
		if ok {
			writeJSON(w, http.StatusOK, map[string]any{"id": id})
			return
		}
	}

	id := uuid.NewString()
	sim := game.NewDefaultSimulation(s.balance, nil, s.log.With("game_id", id))
	if name := strings.TrimSpace(in.StudioName); name != "" {
		sim.Studio.Name = name
	}
	if err := game.SaveGame(r.Context(), s.sink, id, sim); err != nil {
		writeDomainError(w, err)
		return
	}
	if key != "" {
		s.mu.Lock()
		s.created[key] = id
		s.mu.Unlock()
	}

	s.log.Info("game created", "game_id", id, "studio", sim.Studio.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "summary": sim.Summary()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	out, err := s.read(r, func(sim *game.Simulation) any { return sim.Summary() })
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	out, err := s.read(r, func(sim *game.Simulation) any { return sim.ToState() })
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Weeks int `json:"weeks"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Weeks == 0 {
		in.Weeks = 1
	}
	if in.Weeks < 0 || in.Weeks > maxStepWeeks {
		writeError(w, http.StatusBadRequest, "weeks must be between 1 and "+strconv.Itoa(maxStepWeeks))
		return
	}

	id := chi.URLParam(r, "id")
	var msgs []FeedMessage
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		reports := make([]game.StepReport, 0, in.Weeks)
		for i := 0; i < in.Weeks; i++ {
			report := sim.RunStep()
			reports = append(reports, report)
			msgs = append(msgs, FeedMessage{GameID: id, Report: report, Summary: sim.Summary()})
		}
		return map[string]any{"reports": reports, "summary": sim.Summary()}, nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// Subscribers only hear about weeks that were saved.
	for _, msg := range msgs {
		s.feed.Publish(id, msg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title      string `json:"title"`
		Genre      string `json:"genre"`
		Platform   string `json:"platform"`
		Complexity int    `json:"complexity"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		if _, err := sim.Studio.CreateProject(in.Title, in.Genre, in.Platform, in.Complexity); err != nil {
			return nil, err
		}
		return map[string]any{"index": len(sim.Studio.Projects) - 1, "summary": sim.Summary()}, nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var in struct {
		Employees []int `json:"employees"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		if err := sim.Studio.Assign(index, in.Employees); err != nil {
			return nil, err
		}
		p := sim.Studio.Projects[index]
		team := make([]string, 0, len(p.Assigned))
		for _, e := range p.Assigned {
			team = append(team, e.Name)
		}
		return map[string]any{"project": p.Title, "assigned": team}, nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		p, err := sim.Studio.Project(index)
		if err != nil {
			return nil, err
		}
		return sim.ReleaseGame(p)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Role        string `json:"role"`
		SkillCode   int    `json:"skill_code"`
		SkillDesign int    `json:"skill_design"`
		SkillArt    int    `json:"skill_art"`
		SkillSound  int    `json:"skill_sound"`
		Salary      int    `json:"salary"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := game.ParseRole(in.Role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		e := &game.Employee{
			Name:        strings.TrimSpace(in.Name),
			Role:        role,
			SkillCode:   in.SkillCode,
			SkillDesign: in.SkillDesign,
			SkillArt:    in.SkillArt,
			SkillSound:  in.SkillSound,
			Salary:      in.Salary,
		}
		if err := sim.Studio.Hire(e); err != nil {
			return nil, err
		}
		return map[string]any{"index": len(sim.Studio.Employees) - 1, "summary": sim.Summary()}, nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		e, err := sim.Studio.Fire(index)
		if err != nil {
			return nil, err
		}
		return map[string]any{"fired": e.Name, "summary": sim.Summary()}, nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	out, err := s.mutate(r, func(sim *game.Simulation) (any, error) {
		e, err := sim.Studio.Train(index)
		if err != nil {
			return nil, err
		}
		return employeeView(e), nil
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func employeeView(e *game.Employee) map[string]any {
	return map[string]any{
		"name":         e.Name,
		"role":         e.Role,
		"skill_code":   e.SkillCode,
		"skill_design": e.SkillDesign,
		"skill_art":    e.SkillArt,
		"skill_sound":  e.SkillSound,
		"salary":       e.Salary,
		"fatigue":      e.Fatigue,
	}
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid index")
		return 0, false
	}
	return index, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSaveNotFound),
		errors.Is(err, game.ErrEmployeeNotFound),
		errors.Is(err, game.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrProjectNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidRole),
		errors.Is(err, game.ErrInvalidEmployee),
		errors.Is(err, game.ErrInvalidProject),
		errors.Is(err, store.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON accepts an empty body and leaves out untouched.
func decodeOptionalJSON(r *http.Request, out any) error {
	if err := decodeJSON(r, out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
