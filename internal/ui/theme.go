package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary = lipgloss.Color("#7D56F4") // Purple
	Success = lipgloss.Color("#04B575") // Green
	Warning = lipgloss.Color("#FFCC00") // Yellow
	Info    = lipgloss.Color("#5384FF") // Blue
	Muted   = lipgloss.Color("#6C6C6C")
)

type theme struct {
	status  map[Status]lipgloss.Style
	warning lipgloss.Style
}

// newTheme binds the palette to a renderer so colors are dropped when the
// writer is not a terminal.
func newTheme(r *lipgloss.Renderer) theme {
	progress := r.NewStyle().Foreground(Info).Bold(true)
	done := r.NewStyle().Foreground(Success).Bold(true)
	return theme{
		status: map[Status]lipgloss.Style{
			StatusMissing:     r.NewStyle().Foreground(Warning).Bold(true),
			StatusDownloading: progress,
			StatusVerifying:   progress,
			StatusInstalling:  progress,
			StatusInstalled:   done,
			StatusUsing:       r.NewStyle().Foreground(Primary).Bold(true),
			StatusCached:      r.NewStyle().Foreground(Muted).Bold(true),
		},
		warning: r.NewStyle().Foreground(Warning).Bold(true),
	}
}
