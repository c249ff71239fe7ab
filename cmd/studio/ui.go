package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"studiosim/internal/game"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Fprintln(os.Stderr, msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderStatus(sim *game.Simulation) {
	s := sim.Studio
	header := titleStyle.Render(fmt.Sprintf("%s · week %d, year %d", s.Name, sim.Week, sim.Year))
	money := fmt.Sprintf("Cash: %s   Reputation: %d   Weekly payroll: %s",
		colorizeCash(s.Cash), s.Reputation, comma(payroll(sim)))

	staff := []string{titleStyle.Render("Staff")}
	if len(s.Employees) == 0 {
		staff = append(staff, mutedStyle.Render("Nobody works here yet."))
	}
	for i, e := range s.Employees {
		staff = append(staff, fmt.Sprintf("#%-2d %-12s %-10s C%-2d D%-2d A%-2d S%-2d  fatigue %s",
			i, truncate(e.Name, 12), e.Role, e.SkillCode, e.SkillDesign, e.SkillArt, e.SkillSound, fatigueBar(e.Fatigue)))
	}

	projects := []string{titleStyle.Render("Projects")}
	if len(s.Projects) == 0 {
		projects = append(projects, mutedStyle.Render("No active projects."))
	}
	for i, p := range s.Projects {
		team := make([]string, 0, len(p.Assigned))
		for _, e := range p.Assigned {
			team = append(team, e.Name)
		}
		projects = append(projects, fmt.Sprintf("#%-2d %-18s %-9s %-8s %5.1f%%  quality %5.1f  team: %s",
			i, truncate(p.Title, 18), truncate(p.Genre, 9), truncate(p.Platform, 8), p.Progress, p.AverageQuality(), strings.Join(team, ", ")))
	}
	if len(s.FinishedProjects) > 0 {
		done := make([]string, 0, len(s.FinishedProjects))
		for _, p := range s.FinishedProjects {
			done = append(done, fmt.Sprintf("%s (%s)", p.Title, p.Status))
		}
		projects = append(projects, mutedStyle.Render("Shipped or shelved: "+strings.Join(done, ", ")))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		money,
		"",
		strings.Join(staff, "\n"),
		"",
		strings.Join(projects, "\n"),
		"",
		trendLine(sim.Trend),
	)
	fmt.Println(panelStyle.Render(body))
}

func renderReport(r game.StepReport) {
	accent.Printf("Week %d, year %d\n", r.Week, r.Year)
	fmt.Printf("  salaries paid: %s\n", comma(r.SalariesPaid))
	if len(r.IdleRecovered) > 0 {
		fmt.Printf("  resting: %s\n", strings.Join(r.IdleRecovered, ", "))
	}
	if r.Event != nil {
		line := "  " + r.Event.Describe()
		if r.Event.Effect < 0 {
			danger.Println(line)
		} else {
			success.Println(line)
		}
	}
	for _, res := range r.Releases {
		renderRelease(res)
	}
}

func renderRelease(res game.ReleaseResult) {
	var lines []string
	lines = append(lines, titleStyle.Render("Release: "+res.Title))
	lines = append(lines, fmt.Sprintf("Score %s   Units %s   Income %s   Reputation %+d",
		colorizeScore(res.Score), comma(res.Units), colorizeCash(res.Income), res.ReputationGain))
	for _, review := range res.Reviews {
		lines = append(lines, mutedStyle.Render("“"+review+"”"))
	}
	fmt.Println(panelStyle.Render(strings.Join(lines, "\n")))
}

func renderSummaryLine(sum game.Summary) {
	neutral.Printf("Now week %d, year %d. Cash %s, reputation %d, %d active / %d finished projects.\n",
		sum.Week, sum.Year, colorizeCash(sum.Cash), sum.Reputation, len(sum.ActiveProjects), len(sum.FinishedProjects))
}

func renderTrend(t *game.MarketTrend) {
	fmt.Println(trendLine(t))
}

func trendLine(t *game.MarketTrend) string {
	genres, platforms := "none", "none"
	if t != nil && len(t.TrendingGenres) > 0 {
		genres = strings.Join(t.TrendingGenres, ", ")
	}
	if t != nil && len(t.PopularPlatforms) > 0 {
		platforms = strings.Join(t.PopularPlatforms, ", ")
	}
	return fmt.Sprintf("Trending: %s   Popular on: %s", genres, platforms)
}

func payroll(sim *game.Simulation) int {
	total := 0
	for _, e := range sim.Studio.Employees {
		total += sim.Balance.WeeklyWage(e)
	}
	return total
}

func fatigueBar(f int) string {
	const width = 10
	filled := min(width, max(0, int(math.Round(float64(f)/game.MaxFatigue*width))))
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	switch {
	case f >= 70:
		return danger.Sprintf("%s %3d", bar, f)
	case f >= 40:
		return warn.Sprintf("%s %3d", bar, f)
	default:
		return success.Sprintf("%s %3d", bar, f)
	}
}

func colorizeCash(v int) string {
	if v < 0 {
		return danger.Sprint(comma(v))
	}
	return success.Sprint(comma(v))
}

func colorizeScore(score float64) string {
	text := fmt.Sprintf("%.1f", score)
	switch {
	case score >= 70:
		return success.Sprint(text)
	case score >= 40:
		return warn.Sprint(text)
	default:
		return danger.Sprint(text)
	}
}

func comma(v int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
