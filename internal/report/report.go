// Package report renders the daily activity report from the journal.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/stats"
)

//go:embed report.html.tmpl
var reportHTML string

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

// windowHours is how far back the report looks.
const windowHours = 24

// Skill is one entry of the skills section. Level runs 0 through 5.
type Skill struct {
	Name        string
	Level       float64
	Description string
}

// Stars renders the level as a five-star scale.
func (s Skill) Stars() string {
	full := int(math.Ceil(s.Level))
	if full > 5 {
		full = 5
	}
	return strings.Repeat("⭐", full) + strings.Repeat("☆", 5-full)
}

// PersonaSection is one persona's block in the report.
type PersonaSection struct {
	Name        string
	DisplayName string
	Stats       stats.PersonaStats
}

// Data is everything the template renders.
type Data struct {
	Date        string
	GeneratedAt string
	Global      stats.Stats
	Personas    []PersonaSection
	Skills      []Skill
	Suggestions []string
}

// Generator builds the report from the journal.
type Generator struct {
	reader   *journal.Reader
	profiles []persona.Profile
	path     string
	logger   *slog.Logger
	now      func() time.Time
}

// NewGenerator creates a report generator saving rendered HTML at path.
func NewGenerator(r *journal.Reader, profiles []persona.Profile, path string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{reader: r, profiles: profiles, path: path, logger: logger, now: time.Now}
}

// Generate computes the report window and renders the HTML.
func (g *Generator) Generate() (Data, string, error) {
	lines, err := g.reader.Lines()
	if err != nil {
		return Data{}, "", fmt.Errorf("report: read journal: %w", err)
	}
	now := g.now()
	s := stats.Compute(lines, persona.Names(g.profiles), stats.LastHours(now, windowHours))

	data := Data{
		Date:        now.Add(-24 * time.Hour).Format("2006年1月2日"),
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
		Global:      s,
		Skills:      skills(g.profiles, s),
		Suggestions: suggestions(g.profiles, s),
	}
	for _, p := range g.profiles {
		data.Personas = append(data.Personas, PersonaSection{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Stats:       s.Personas[p.Name],
		})
	}

	var b strings.Builder
	if err := reportTmpl.Execute(&b, data); err != nil {
		return Data{}, "", fmt.Errorf("report: render: %w", err)
	}
	return data, b.String(), nil
}

// Save renders the report and writes it to the configured path,
// returning the HTML for optional mailing.
func (g *Generator) Save() (string, error) {
	_, html, err := g.Generate()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	if err := os.WriteFile(g.path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("report: write: %w", err)
	}
	g.logger.Info("daily report saved", "path", g.path)
	return html, nil
}

// skills scores learning progress per persona plus a communication
// score from the interaction volume. Ten visits or five interactions
// fill one star tier, capped at five.
func skills(profiles []persona.Profile, s stats.Stats) []Skill {
	var out []Skill
	for _, p := range profiles {
		ps := s.Personas[p.Name]
		if ps.Visits == 0 {
			continue
		}
		out = append(out, Skill{
			Name:        p.DisplayName,
			Level:       math.Min(float64(ps.Visits)/10, 5),
			Description: fmt.Sprintf("浏览了 %d 篇帖子，持续学习社区内容", ps.Visits),
		})
	}
	if s.Interactions > 0 {
		out = append(out, Skill{
			Name:        "💬 沟通能力",
			Level:       math.Min(float64(s.Interactions)/5, 5),
			Description: fmt.Sprintf("完成了 %d 次互动（点赞/评论），增强了社区互动能力", s.Interactions),
		})
	}
	return out
}

func suggestions(profiles []persona.Profile, s stats.Stats) []string {
	var out []string
	if s.Visits < 20 {
		out = append(out, "📈 建议增加浏览量，学习更多内容")
	}
	if s.Interactions < 5 {
		out = append(out, "💬 建议提高互动概率，增加社区参与度")
	}
	if s.Authored == 0 {
		out = append(out, "✍️ 建议尝试发布更多原创内容，提升影响力")
	}
	for _, p := range profiles {
		if s.Personas[p.Name].Visits == 0 {
			out = append(out, fmt.Sprintf("🔍 %s 今日没有学习记录，检查其运行状态", p.DisplayName))
		}
	}
	if len(out) == 0 {
		out = append(out, "✅ 一切进展顺利！继续保持")
	}
	return out
}
