package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	cl "studiosim/internal/cli"
	"studiosim/internal/config"
	"studiosim/internal/game"
	"studiosim/internal/random"
	"studiosim/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type app struct {
	cfg      config.CLIConfig
	saveName string
	verbose  bool
	log      *slog.Logger
}

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		printError(fmt.Sprintf("config: %v", err))
		os.Exit(1)
	}
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:          "studio",
		Short:        "Run a small game-development studio, one week at a time",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().StringVar(&a.saveName, "save", "default", "save slot to play")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log simulation details to stderr")

	root.AddCommand(
		newNewCmd(a),
		newStatusCmd(a),
		newStepCmd(a),
		newReleaseCmd(a),
		newForecastCmd(a),
		newHireCmd(a),
		newFireCmd(a),
		newTrainCmd(a),
		newProjectCmd(a),
		newTrendCmd(a),
		newSavesCmd(a),
		newRemoteCmd(a),
	)

	if err := root.Execute(); err != nil {
		printError(fmt.Sprintf("error: %v", err))
		if errors.Is(err, game.ErrSaveNotFound) {
			printInfo("Start one with `studio new`.")
		}
		os.Exit(1)
	}
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, a.cfg.Store.Options())
}

// reseed gives a loaded simulation the random source for its current week.
func (a *app) reseed(sim *game.Simulation) error {
	seed, err := random.ForTick(a.cfg.Game.Seed, sim.WeekIndex())
	if err != nil {
		return err
	}
	sim.Reseed(game.NewRand(seed))
	return nil
}

// withGame loads the current save, runs fn and writes the simulation back
// when persist is set and fn succeeded.
func (a *app) withGame(cmd *cobra.Command, persist bool, fn func(sim *game.Simulation) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	sim, err := game.LoadGame(ctx, st, a.saveName, game.DecodeOptions{}, nil, a.log)
	if err != nil {
		return err
	}
	if err := a.reseed(sim); err != nil {
		return err
	}
	if err := fn(sim); err != nil {
		return err
	}
	if !persist {
		return nil
	}
	return game.SaveGame(ctx, st, a.saveName, sim)
}

func newNewCmd(a *app) *cobra.Command {
	var studioName string
	var force bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new studio in the current save slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if !force {
				_, err := st.Load(ctx, a.saveName)
				if err == nil {
					return fmt.Errorf("save %q already exists, pass --force to overwrite", a.saveName)
				}
				if !errors.Is(err, game.ErrSaveNotFound) {
					return err
				}
			}

			balance, err := a.cfg.Game.Balance()
			if err != nil {
				return err
			}
			sim := game.NewDefaultSimulation(balance, nil, a.log)
			if name := strings.TrimSpace(studioName); name != "" {
				sim.Studio.Name = name
			}
			if err := game.SaveGame(ctx, st, a.saveName, sim); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Studio %q founded in save %q.", sim.Studio.Name, a.saveName))
			renderStatus(sim)
			return nil
		},
	}
	cmd.Flags().StringVar(&studioName, "studio", "", "studio name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing save")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the studio, its staff and projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, false, func(sim *game.Simulation) error {
				renderStatus(sim)
				return nil
			})
		},
	}
}

func newStepCmd(a *app) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Simulate one or more weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return fmt.Errorf("--weeks must be at least 1")
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				for i := 0; i < weeks; i++ {
					renderReport(sim.RunStep())
				}
				renderSummaryLine(sim.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to simulate")
	return cmd
}

func newReleaseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "release <project>",
		Short: "Ship an active project now, whatever its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "project")
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				p, err := sim.Studio.Project(idx)
				if err != nil {
					return err
				}
				res, err := sim.ReleaseGame(p)
				if err != nil {
					return err
				}
				renderRelease(res)
				return nil
			})
		},
	}
}

func newForecastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast <project>",
		Short: "Estimate how a project would do if it shipped today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "project")
			if err != nil {
				return err
			}
			return a.withGame(cmd, false, func(sim *game.Simulation) error {
				p, err := sim.Studio.Project(idx)
				if err != nil {
					return err
				}
				warn.Println("Forecast only, nothing is saved.")
				renderRelease(sim.Forecast(p))
				return nil
			})
		},
	}
}

func newHireCmd(a *app) *cobra.Command {
	var in cl.NewEmployee
	cmd := &cobra.Command{
		Use:   "hire",
		Short: "Hire a new employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if strings.TrimSpace(in.Name) == "" {
				if in.Name, err = promptRequired("Name"); err != nil {
					return err
				}
			}
			if strings.TrimSpace(in.Role) == "" {
				if in.Role, err = promptChoice("Role", roleNames(), string(game.RoleProgrammer)); err != nil {
					return err
				}
			}
			role, err := game.ParseRole(in.Role)
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
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
					return err
				}
				printSuccess(fmt.Sprintf("Hired %s as %s (#%d), weekly wage %d.", e.Name, e.Role, len(sim.Studio.Employees)-1, sim.Balance.WeeklyWage(e)))
				return nil
			})
		},
	}
	bindEmployeeFlags(cmd, &in)
	return cmd
}

func bindEmployeeFlags(cmd *cobra.Command, in *cl.NewEmployee) {
	cmd.Flags().StringVar(&in.Name, "name", "", "employee name")
	cmd.Flags().StringVar(&in.Role, "role", "", "programmer, designer, artist, sound or producer")
	cmd.Flags().IntVar(&in.SkillCode, "code", 1, "code skill")
	cmd.Flags().IntVar(&in.SkillDesign, "design", 1, "design skill")
	cmd.Flags().IntVar(&in.SkillArt, "art", 1, "art skill")
	cmd.Flags().IntVar(&in.SkillSound, "sound", 1, "sound skill")
	cmd.Flags().IntVar(&in.Salary, "salary", 0, "weekly salary, 0 uses the role's base wage")
}

func newFireCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fire <employee>",
		Short: "Let an employee go",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "employee")
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				e, err := sim.Studio.Fire(idx)
				if err != nil {
					return err
				}
				printWarn(fmt.Sprintf("%s has left the studio.", e.Name))
				return nil
			})
		},
	}
}

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train <employee>",
		Short: "Raise an employee's main skill by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "employee")
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				e, err := sim.Studio.Train(idx)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s trained: code %d, design %d, art %d, sound %d.", e.Name, e.SkillCode, e.SkillDesign, e.SkillArt, e.SkillSound))
				return nil
			})
		},
	}
}

func newProjectCmd(a *app) *cobra.Command {
	project := &cobra.Command{
		Use:   "project",
		Short: "Project operations",
	}

	var title, genre, platform string
	var complexity int
	create := &cobra.Command{
		Use:   "create",
		Short: "Start a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if strings.TrimSpace(title) == "" {
				if title, err = promptRequired("Title"); err != nil {
					return err
				}
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				p, err := sim.Studio.CreateProject(title, genre, platform, complexity)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Project %q (#%d) is in development.", p.Title, len(sim.Studio.Projects)-1))
				return nil
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "project title")
	create.Flags().StringVar(&genre, "genre", "RPG", "genre")
	create.Flags().StringVar(&platform, "platform", "PC", "platform")
	create.Flags().IntVar(&complexity, "complexity", 20, "complexity, higher takes longer")

	project.AddCommand(create)
	project.AddCommand(&cobra.Command{
		Use:   "assign <project> <employee>...",
		Short: "Put employees on a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "project")
			if err != nil {
				return err
			}
			team := make([]int, 0, len(args)-1)
			for i := 1; i < len(args); i++ {
				e, err := indexArg(args, i, "employee")
				if err != nil {
					return err
				}
				team = append(team, e)
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				if err := sim.Studio.Assign(idx, team); err != nil {
					return err
				}
				p := sim.Studio.Projects[idx]
				printSuccess(fmt.Sprintf("%s now has %d people assigned.", p.Title, len(p.Assigned)))
				return nil
			})
		},
	})
	project.AddCommand(&cobra.Command{
		Use:   "cancel <project>",
		Short: "Cancel an active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "project")
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				p, err := sim.Studio.Cancel(idx)
				if err != nil {
					return err
				}
				printWarn(fmt.Sprintf("%s was cancelled.", p.Title))
				return nil
			})
		},
	})
	project.AddCommand(&cobra.Command{
		Use:   "finish <project>",
		Short: "Wrap up a project without a commercial release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := indexArg(args, 0, "project")
			if err != nil {
				return err
			}
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				p, err := sim.Studio.Project(idx)
				if err != nil {
					return err
				}
				if err := sim.Studio.FinishProject(p); err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s is finished. Reputation is now %d.", p.Title, sim.Studio.Reputation))
				return nil
			})
		},
	})
	return project
}

func newTrendCmd(a *app) *cobra.Command {
	var genres, platforms []string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show or change what the market wants",
		Long:  "Without flags the trend lists rotate; --genres and --platforms replace them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, true, func(sim *game.Simulation) error {
				sim.UpdateTrends(genres, platforms)
				renderTrend(sim.Trend)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&genres, "genres", nil, "trending genres")
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "popular platforms")
	return cmd
}

func newSavesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "saves",
		Short: "List save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			names, err := st.List(ctx)
			if err != nil {
				return err
			}
			accent.Printf("Saves (%s store)\n", a.cfg.Store.Kind)
			if len(names) == 0 {
				printInfo("No saves yet.")
				return nil
			}
			for _, name := range names {
				marker := " "
				if name == a.saveName {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func newRemoteCmd(a *app) *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Play against a studio API server",
	}
	client := func() *cl.Client {
		return cl.NewClient(a.cfg.APIBaseURL)
	}

	var studioName string
	newGame := &cobra.Command{
		Use:   "new",
		Short: "Create a game on the server and remember it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			created, err := client().NewGame(ctx, studioName, uuid.NewString())
			if err != nil {
				return err
			}
			if err := cl.SaveSession(a.cfg.Store.DataDir, cl.Session{BaseURL: a.cfg.APIBaseURL, GameID: created.ID}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Remote game %s created.", created.ID))
			renderSummaryLine(created.Summary)
			return nil
		},
	}
	newGame.Flags().StringVar(&studioName, "studio", "", "studio name")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession(a.cfg.Store.DataDir)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := client().State(ctx, sess.GameID)
			if err != nil {
				return err
			}
			renderStatus(game.FromState(st, nil, a.log))
			return nil
		},
	}

	var weeks int
	step := &cobra.Command{
		Use:   "step",
		Short: "Advance the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession(a.cfg.Store.DataDir)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := client().Step(ctx, sess.GameID, weeks)
			if err != nil {
				return err
			}
			for _, r := range out.Reports {
				renderReport(r)
			}
			renderSummaryLine(out.Summary)
			return nil
		},
	}
	step.Flags().IntVar(&weeks, "weeks", 1, "number of weeks to simulate")

	remote.AddCommand(newGame, status, step)
	return remote
}

func indexArg(args []string, idx int, label string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(args[idx]))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s index %q", label, args[idx])
	}
	return v, nil
}

func roleNames() []string {
	out := make([]string, 0, len(game.Roles))
	for _, r := range game.Roles {
		out = append(out, string(r))
	}
	return out
}
