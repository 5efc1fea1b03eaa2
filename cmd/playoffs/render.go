package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/utakatalp/playoff-picture/internal/bracket"
	"github.com/utakatalp/playoff-picture/internal/league"
	"github.com/utakatalp/playoff-picture/internal/scenario"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderStandings(rows []league.Standing, annotated bool) string {
	headers := []string{"Seed", "Team", "W-L-T", "Div", "Conf", "PF", "PA"}
	if annotated {
		headers = append(headers, "Magic", "Out")
	}
	t := newTable(headers...)
	for _, s := range rows {
		seed := ""
		if s.Seed > 0 {
			seed = strconv.Itoa(s.Seed)
		}
		row := []string{
			seed,
			s.Team.ID + s.Clinched.String(),
			s.Record.Overall.String(),
			s.Record.Division.String(),
			s.Record.Conference.String(),
			strconv.Itoa(s.Record.PointsFor),
			strconv.Itoa(s.Record.PointsAgainst),
		}
		if annotated {
			out := ""
			if s.Eliminated {
				out = "e"
			}
			row = append(row, magic(s.MagicNumber), out)
		}
		t.Row(row...)
	}
	return t.Render()
}

func magic(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func renderScenario(sc scenario.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s (magic number %s, search %s, %d nodes)\n",
		titleStyle.Render(sc.TeamID), sc.Goal, sc.Status, magic(sc.MagicNumber), sc.Search, sc.Nodes)
	if len(sc.Paths) == 0 {
		return b.String()
	}
	t := newTable("#", "Kind", "Events", "Needs")
	for i, p := range sc.Paths {
		needs := make([]string, 0, len(p.Requirements))
		for _, r := range p.Requirements {
			needs = append(needs, fmt.Sprintf("wk%d %s over %s", r.Week, r.Winner, loser(r)))
		}
		t.Row(strconv.Itoa(i+1), p.Kind.String(), strconv.Itoa(p.Events), strings.Join(needs, ", "))
	}
	b.WriteString(t.Render())
	return b.String()
}

func loser(r scenario.Requirement) string {
	if r.Winner == r.Home {
		return r.Away
	}
	return r.Home
}

func renderReport(bundles []scenario.Bundle) string {
	headers := []string{"Team"}
	for _, g := range scenario.Goals {
		headers = append(headers, g.String())
	}
	t := newTable(headers...)
	for _, b := range bundles {
		row := []string{b.TeamID}
		for _, g := range scenario.Goals {
			sc := b.Scenarios[g]
			cell := sc.Status.String()
			if sc.Status == scenario.StatusAlive {
				cell = fmt.Sprintf("alive (%s)", magic(sc.MagicNumber))
			}
			row = append(row, cell)
		}
		t.Row(row...)
	}
	return t.Render()
}

func renderTiebreak(order []string, splits []league.Split) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("order:"), strings.Join(order, " > "))
	t := newTable("Step", "Groups")
	for _, s := range splits {
		groups := make([]string, 0, len(s.Groups))
		for _, g := range s.Groups {
			groups = append(groups, strings.Join(g, " = "))
		}
		t.Row(s.Step.String(), strings.Join(groups, " > "))
	}
	b.WriteString(t.Render())
	return b.String()
}

func renderBracket(br bracket.Bracket) string {
	t := newTable("Round", "Conf", "Slot", "High", "Low", "Winner", "Source")
	for _, m := range br.Matchups {
		t.Row(
			m.Round.String(),
			string(m.Conference),
			strconv.Itoa(m.Slot),
			seeded(m.High),
			seeded(m.Low),
			m.Winner,
			m.Source.String(),
		)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("stage:"), br.Stage)
	b.WriteString(t.Render())
	if br.Champion != "" {
		fmt.Fprintf(&b, "\n%s %s\n", titleStyle.Render("champion:"), br.Champion)
	}
	return b.String()
}

func seeded(s bracket.Seeded) string {
	switch {
	case s.TeamID == "":
		return "TBD"
	case s.Seed == 0:
		return s.TeamID
	}
	return fmt.Sprintf("(%d) %s", s.Seed, s.TeamID)
}
