package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studiosim/internal/game"
)

// APIError is a non-2xx answer from the studio API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type CreatedGame struct {
	ID      string       `json:"id"`
	Summary game.Summary `json:"summary"`
}

type StepResult struct {
	Reports []game.StepReport `json:"reports"`
	Summary game.Summary      `json:"summary"`
}

type NewEmployee struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	SkillCode   int    `json:"skill_code"`
	SkillDesign int    `json:"skill_design"`
	SkillArt    int    `json:"skill_art"`
	SkillSound  int    `json:"skill_sound"`
	Salary      int    `json:"salary"`
}

func gamePath(id string, parts ...string) string {
	path := "/v1/games/" + url.PathEscape(id)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func (c *Client) NewGame(ctx context.Context, studioName, idem string) (CreatedGame, error) {
	var out CreatedGame
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", map[string]any{
		"studio_name": studioName,
	}, &out, idem)
	return out, err
}

func (c *Client) Summary(ctx context.Context, id string) (game.Summary, error) {
	var out game.Summary
	err := c.jsonRequest(ctx, http.MethodGet, gamePath(id), nil, &out, "")
	return out, err
}

func (c *Client) State(ctx context.Context, id string) (game.State, error) {
	var out game.State
	err := c.jsonRequest(ctx, http.MethodGet, gamePath(id, "state"), nil, &out, "")
	return out, err
}

func (c *Client) Step(ctx context.Context, id string, weeks int) (StepResult, error) {
	var out StepResult
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "step"), map[string]any{
		"weeks": weeks,
	}, &out, "")
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, id, title, genre, platform string, complexity int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "projects"), map[string]any{
		"title":      title,
		"genre":      genre,
		"platform":   platform,
		"complexity": complexity,
	}, &out, "")
	return out, err
}

func (c *Client) Assign(ctx context.Context, id string, project int, employees []int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "projects", fmt.Sprint(project), "assign"), map[string]any{
		"employees": employees,
	}, &out, "")
	return out, err
}

func (c *Client) Release(ctx context.Context, id string, project int) (game.ReleaseResult, error) {
	var out game.ReleaseResult
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "projects", fmt.Sprint(project), "release"), nil, &out, "")
	return out, err
}

func (c *Client) Hire(ctx context.Context, id string, e NewEmployee) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "employees"), e, &out, "")
	return out, err
}

func (c *Client) Fire(ctx context.Context, id string, employee int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodDelete, gamePath(id, "employees", fmt.Sprint(employee)), nil, &out, "")
	return out, err
}

func (c *Client) Train(ctx context.Context, id string, employee int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, gamePath(id, "employees", fmt.Sprint(employee), "train"), nil, &out, "")
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
