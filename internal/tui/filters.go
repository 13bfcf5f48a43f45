package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/news"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/validation"
)

type filterField int

const (
	fieldKeyword filterField = iota
	fieldTopic
	fieldLocation
	fieldStartDate
	fieldEndDate
	fieldExclude
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldKeyword:   "Keyword",
	fieldTopic:     "Topic",
	fieldLocation:  "Location",
	fieldStartDate: "From",
	fieldEndDate:   "To",
	fieldExclude:   "Exclude sites",
}

var fieldPlaceholders = [fieldCount]string{
	fieldKeyword:   "any words",
	fieldLocation:  "city, region or country",
	fieldStartDate: "YYYY-MM-DD",
	fieldEndDate:   "YYYY-MM-DD",
	fieldExclude:   "cnn.com, foxnews.com",
}

// filterPanel edits a FilterSet. Nothing reaches the controller until the
// panel is applied.
type filterPanel struct {
	inputs [fieldCount]textinput.Model
	topic  news.Topic
	focus  filterField
	err    error
}

func newFilterPanel() *filterPanel {
	p := &filterPanel{}
	for f := range fieldCount {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[f]
		ti.CharLimit = 256
		ti.Prompt = ""
		p.inputs[f] = ti
	}
	return p
}

func (p *filterPanel) load(fs news.FilterSet) tea.Cmd {
	p.inputs[fieldKeyword].SetValue(fs.Keyword)
	p.inputs[fieldLocation].SetValue(fs.Location)
	p.inputs[fieldStartDate].SetValue(news.FormatDate(fs.StartDate))
	p.inputs[fieldEndDate].SetValue(news.FormatDate(fs.EndDate))
	p.inputs[fieldExclude].SetValue(strings.Join(fs.ExcludeWebsites, ", "))
	p.topic = fs.Topic
	p.err = nil
	return p.setFocus(fieldKeyword)
}

// value parses the form. Domains are normalized and the result validated.
func (p *filterPanel) value() (news.FilterSet, error) {
	start, err := news.ParseDate(p.inputs[fieldStartDate].Value())
	if err != nil {
		return news.FilterSet{}, fmt.Errorf("from: %w", err)
	}
	end, err := news.ParseDate(p.inputs[fieldEndDate].Value())
	if err != nil {
		return news.FilterSet{}, fmt.Errorf("to: %w", err)
	}
	sites, err := validation.NormalizeDomains(news.ParseExcludeWebsites(p.inputs[fieldExclude].Value()))
	if err != nil {
		return news.FilterSet{}, fmt.Errorf("exclude sites: %w", err)
	}

	fs := news.FilterSet{
		Keyword:         p.inputs[fieldKeyword].Value(),
		Topic:           p.topic,
		Location:        p.inputs[fieldLocation].Value(),
		StartDate:       start,
		EndDate:         end,
		ExcludeWebsites: sites,
	}.Normalize()
	if err := fs.Validate(); err != nil {
		return news.FilterSet{}, err
	}
	return fs, nil
}

func (p *filterPanel) setFocus(f filterField) tea.Cmd {
	p.focus = f
	var cmd tea.Cmd
	for i := range p.inputs {
		if filterField(i) == f && f != fieldTopic {
			cmd = p.inputs[i].Focus()
		} else {
			p.inputs[i].Blur()
		}
	}
	return cmd
}

func (p *filterPanel) next() tea.Cmd { return p.setFocus((p.focus + 1) % fieldCount) }

func (p *filterPanel) prev() tea.Cmd { return p.setFocus((p.focus + fieldCount - 1) % fieldCount) }

// update feeds a key to the focused field. The topic field cycles instead
// of taking text.
func (p *filterPanel) update(msg tea.KeyMsg) tea.Cmd {
	p.err = nil
	if p.focus == fieldTopic {
		switch msg.String() {
		case "right", "l", " ":
			p.topic = p.topic.Next()
		case "left", "h":
			p.topic = p.topic.Prev()
		}
		return nil
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *filterPanel) setWidth(w int) {
	for i := range p.inputs {
		p.inputs[i].Width = w
	}
}

func (p *filterPanel) view(width int) string {
	rows := []string{renderHeader("› filters", "changes apply on enter", width), ""}
	for f := range fieldCount {
		label := LabelStyle.Render(fieldLabels[f])
		if f == p.focus {
			label = FocusedLabelStyle.Render(fieldLabels[f])
		}
		var field string
		if f == fieldTopic {
			field = p.topicView()
		} else {
			field = p.inputs[f].View()
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label, field))
	}
	rows = append(rows, "")
	if p.err != nil {
		rows = append(rows, ErrorMessageStyle.Render("✗ "+p.err.Error()), "")
	}
	rows = append(rows, renderHelp("tab/↓: next • shift+tab/↑: previous • ←/→: topic • enter: apply • ctrl+r: reset • esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (p *filterPanel) topicView() string {
	label := p.topic.Label()
	if p.focus == fieldTopic {
		return lipgloss.NewStyle().Foreground(AccentColor).Bold(true).Render("‹ " + label + " ›")
	}
	return lipgloss.NewStyle().Foreground(TextColor).Render("  " + label)
}

// ConfigFilters builds the configured default filters. Invalid entries are
// logged and dropped.
func ConfigFilters(fc config.FeedConfig) news.FilterSet {
	topic, err := news.ParseTopic(fc.Topic)
	if err != nil {
		debuglog.Warnf("tui: ignoring configured topic: %v", err)
	}
	sites, err := validation.NormalizeDomains(fc.ExcludeWebsites)
	if err != nil {
		debuglog.Warnf("tui: ignoring configured excluded websites: %v", err)
		sites = nil
	}
	return news.FilterSet{
		Keyword:         fc.Keyword,
		Topic:           topic,
		Location:        fc.Location,
		ExcludeWebsites: sites,
	}.Normalize()
}

// StartupFilters returns the last applied filters when restoring is on and
// some were saved, and the configured defaults otherwise.
func StartupFilters(cfg *config.Config, store *storage.Store) news.FilterSet {
	if cfg.Feed.RestoreFilters && store != nil {
		fs, ok, err := store.LoadFilters()
		switch {
		case err != nil:
			debuglog.Warnf("tui: loading saved filters: %v", err)
		case ok:
			return fs
		}
	}
	return ConfigFilters(cfg.Feed)
}
