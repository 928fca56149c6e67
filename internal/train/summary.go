package train

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

var (
	labelStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	valueStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Summary renders the result as a small table.
func (r Result) Summary() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return labelStyle
			}
			return valueStyle
		})
	t.Row("Run", r.RunID)
	t.Row("Epochs", strconv.Itoa(r.Epochs))
	t.Row("Steps", humanize.Comma(int64(r.Steps)))
	t.Row("Final loss", fmt.Sprintf("%.6f", r.FinalLoss))
	t.Row("Duration", r.Duration.Round(time.Millisecond).String())
	return t.String()
}
