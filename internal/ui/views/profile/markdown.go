package profile

import (
	"fmt"
	"strings"

	profiledto "peerlink/internal/modules/profile/dto"
)

const (
	maxProjects = 15
	maxBadges   = 12
	maxLogtime  = 7
	maxXP       = 10
)

// Markdown renders a loaded profile as a markdown document. Sections for
// optional data that the upstream did not return are omitted.
func Markdown(out profiledto.ProfileOutput) string {
	p := out.Profile
	if p == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Login)
	fmt.Fprintf(&b, "%s · %s · %s\n\n", p.Campus, p.ClassName, p.ParallelName)
	fmt.Fprintf(&b, "| Level | XP | To next level | Email |\n|---|---|---|---|\n| %d | %d | %d | %s |\n\n",
		p.Level, p.ExpValue, p.ExpToNextLevel, p.Email)

	if c := p.Coalition; c != nil {
		fmt.Fprintf(&b, "**Coalition:** %s · score %d · rank %d\n\n", c.Name, c.Score, c.Rank)
	}
	if w := p.Workstation; w != nil {
		state := "offline"
		if w.IsActive {
			state = "online"
		}
		fmt.Fprintf(&b, "**Workstation:** %s (`%s`, %s)\n\n", w.Location, w.Host, state)
	}

	if len(p.Skills) > 0 {
		b.WriteString("## Skills\n\n")
		for _, s := range p.Skills {
			fmt.Fprintf(&b, "- %s `%s` %d%%\n", s.Name, bar(s.Level, 100, 20), s.Level)
		}
		b.WriteString("\n")
	}

	if len(p.Projects) > 0 {
		b.WriteString("## Projects\n\n| Project | Status | Mark | Updated |\n|---|---|---|---|\n")
		for i, pr := range p.Projects {
			if i == maxProjects {
				fmt.Fprintf(&b, "| … %d more | | | |\n", len(p.Projects)-maxProjects)
				break
			}
			mark := "-"
			if pr.FinalMark != nil {
				mark = fmt.Sprintf("%.0f%%", *pr.FinalMark)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", pr.Name, pr.Status, mark, shortDate(pr.UpdatedAt))
		}
		b.WriteString("\n")
	}

	if len(p.Logtime) > 0 || p.AverageLogtime != nil {
		b.WriteString("## Logtime\n\n")
		if p.AverageLogtime != nil {
			fmt.Fprintf(&b, "Average: **%.1f h/week**\n\n", *p.AverageLogtime)
		}
		history := p.Logtime
		if len(history) > maxLogtime {
			history = history[len(history)-maxLogtime:]
		}
		for _, l := range history {
			fmt.Fprintf(&b, "- %s: %dh %02dm\n", shortDate(l.Date), l.Hours, l.Minutes)
		}
		b.WriteString("\n")
	}

	if f := p.Feedback; f != nil {
		b.WriteString("## Feedback\n\n")
		fmt.Fprintf(&b, "| Punctuality | Interest | Thoroughness | Friendliness |\n|---|---|---|---|\n| %d/5 | %d/5 | %d/5 | %d/5 |\n\n",
			f.Punctuality, f.Interest, f.Thoroughness, f.Friendliness)
	}

	if len(p.Badges) > 0 {
		b.WriteString("## Badges\n\n")
		for i, badge := range p.Badges {
			if i == maxBadges {
				fmt.Fprintf(&b, "- … %d more\n", len(p.Badges)-maxBadges)
				break
			}
			fmt.Fprintf(&b, "- **%s**", badge.Name)
			if badge.Description != "" && badge.Description != badge.Name {
				fmt.Fprintf(&b, ": %s", badge.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(p.XPHistory) > 0 {
		b.WriteString("## Experience\n\n")
		history := p.XPHistory
		if len(history) > maxXP {
			history = history[len(history)-maxXP:]
		}
		for _, x := range history {
			fmt.Fprintf(&b, "- %s: %d XP\n", shortDate(x.Date), x.ExpValue)
		}
		b.WriteString("\n")
	}

	if len(p.Courses) > 0 {
		b.WriteString("## Courses\n\n")
		for _, c := range p.Courses {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Title, c.Status)
		}
		b.WriteString("\n")
	}

	if len(out.Missing) > 0 {
		fmt.Fprintf(&b, "---\n\n_Unavailable: %s_\n", strings.Join(out.Missing, ", "))
	}
	return b.String()
}

func bar(value, limit, width int) string {
	if limit <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min(max(value, 0)*width/limit, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func shortDate(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	if s == "" {
		return "-"
	}
	return s
}
