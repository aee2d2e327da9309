package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
)

// Console is the operator facing output sink. Failures printed through it
// are also written to the log.
type Console struct {
	out    io.Writer
	logger *logger.Logger
}

func New(out io.Writer, log *logger.Logger) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, logger: log.WithModule("console")}
}

func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

// Panel prints a bordered title block
func (c *Console) Panel(title, subtitle string) {
	body := titleStyle.Render(title)
	if subtitle != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, mutedStyle.Render(subtitle))
	}
	fmt.Fprintln(c.out, panelStyle.Render(body))
}

func (c *Console) Title(format string, a ...any) {
	fmt.Fprintln(c.out, titleStyle.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Info(format string, a ...any) {
	fmt.Fprintln(c.out, infoStyle.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Muted(format string, a ...any) {
	fmt.Fprintln(c.out, mutedStyle.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Success(format string, a ...any) {
	fmt.Fprintln(c.out, successStyle.Render(fmt.Sprintf(format, a...)))
}

func (c *Console) Warn(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	c.logger.Warn(msg)
	fmt.Fprintln(c.out, warningStyle.Render(msg))
}

func (c *Console) Error(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	c.logger.Error(msg)
	fmt.Fprintln(c.out, errorStyle.Render(msg))
}

// Table prints rows under headers with a rounded border
func (c *Console) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(c.out, t.String())
}

// Menu prints numbered options keyed by their choice string
func (c *Console) Menu(title string, options [][2]string) {
	c.Title("%s", title)
	var b strings.Builder
	for _, opt := range options {
		fmt.Fprintf(&b, "  %s %s\n", infoStyle.Render("["+opt[0]+"]"), opt[1])
	}
	fmt.Fprint(c.out, b.String())
}
