// Package hunkpicker implements the interactive front end split --by-hunk
// needs: given the current branch's cumulative diff against its parent, let
// the user assign each changed file to a named group, in the order groups
// should end up stacked. Grounded on the teacher's internal/ui/textinput.go
// bubbletea usage (tea.Model/Init/Update/View, bubbles/textinput,
// lipgloss styling) - the same library stack, a new model.
//
// This program shells out to git rather than parsing trees directly, so a
// group's patch is reconstructed by re-diffing with a file pathspec
// (internal/commands.buildFileChain), not by slicing the patch text
// itself. That means grouping happens at file granularity: two hunks in
// the same file cannot be routed to different groups. The picker asks
// for one group name per file, so every hunk of a file goes to the
// file's group.
package hunkpicker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diamondstack/diamond/internal/commands"
	"github.com/diamondstack/diamond/internal/dmderrors"
)

var diffHeaderRe = regexp.MustCompile(`(?m)^diff --git a/(.+) b/(.+)$`)
var hunkHeaderRe = regexp.MustCompile(`(?m)^@@ .* @@`)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	fileStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	promptSty  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type fileEntry struct {
	path      string
	hunkCount int
	group     string
}

type model struct {
	files   []fileEntry
	cursor  int
	input   textinput.Model
	done    bool
	aborted bool
	err     string
}

// Select is the commands.HunkSelector implementation wired into
// split --by-hunk. It parses patch for per-file hunk counts, runs the
// picker, and returns one SplitFileGroup per distinct group name the
// user entered, in first-seen order.
func Select(patch string) ([]commands.SplitFileGroup, error) {
	files := parseFiles(patch)
	if len(files) == 0 {
		return nil, dmderrors.PreconditionErrorf("split --by-hunk", "found nothing to split", "the diff against parent is empty")
	}

	ti := textinput.New()
	ti.Placeholder = "group name"
	ti.CharLimit = 64
	ti.Width = 30
	ti.Focus()

	m := model{files: files, input: ti}
	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	final := result.(model)
	if final.aborted {
		return nil, dmderrors.PreconditionErrorf("split --by-hunk", "was cancelled", "")
	}

	var order []string
	seen := map[string][]string{}
	for _, f := range final.files {
		if f.group == "" {
			return nil, dmderrors.PreconditionErrorf("split --by-hunk", "left "+f.path+" unassigned", "every file needs a group")
		}
		if _, ok := seen[f.group]; !ok {
			order = append(order, f.group)
		}
		seen[f.group] = append(seen[f.group], f.path)
	}

	groups := make([]commands.SplitFileGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, commands.SplitFileGroup{Name: name, Patterns: seen[name]})
	}
	return groups, nil
}

func parseFiles(patch string) []fileEntry {
	matches := diffHeaderRe.FindAllStringSubmatchIndex(patch, -1)
	var files []fileEntry
	for i, m := range matches {
		start := m[1]
		end := len(patch)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		section := patch[start:end]
		path := patch[m[2]:m[3]]
		files = append(files, fileEntry{
			path:      path,
			hunkCount: len(hunkHeaderRe.FindAllString(section, -1)),
		})
	}
	return files
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			name := strings.TrimSpace(m.input.Value())
			if name == "" {
				m.err = "group name cannot be empty"
				return m, nil
			}
			m.files[m.cursor].group = name
			m.err = ""
			m.input.SetValue("")
			m.cursor++
			if m.cursor >= len(m.files) {
				m.done = true
				return m, tea.Quit
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done {
		return doneStyle.Render("all files assigned\n")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Assign each file to a new branch") + "\n\n")
	for i, f := range m.files {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		status := countStyle.Render(fmt.Sprintf("(%d hunks)", f.hunkCount))
		if f.group != "" {
			status = doneStyle.Render("-> " + f.group)
		}
		b.WriteString(marker + fileStyle.Render(f.path) + " " + status + "\n")
	}
	b.WriteString("\n" + promptSty.Render("group: ") + m.input.View() + "\n")
	if m.err != "" {
		b.WriteString(errStyle.Render(m.err) + "\n")
	}
	b.WriteString(countStyle.Render("enter to assign, esc to cancel"))
	return b.String()
}
