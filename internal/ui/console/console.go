// Package console renders launch progress on a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/imamik/facetctl/internal/cluster"
	"github.com/imamik/facetctl/internal/launch"
)

// Console writes launch events to a terminal. It is safe for concurrent
// use; every event is written as whole lines.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	verbose bool
	start   time.Time
	now     func() time.Time
}

var _ launch.Observer = (*Console)(nil)

// New returns a Console writing to out. Styling is applied only when color
// is set.
func New(out io.Writer, color, verbose bool) *Console {
	return &Console{out: out, color: color, verbose: verbose, start: time.Now(), now: time.Now}
}

// Stdout returns a Console on standard output, styled when it is a
// terminal.
func Stdout(verbose bool) *Console {
	return New(os.Stdout, isInteractiveTTY(), verbose)
}

func isInteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}

func (c *Console) write(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, _ = io.WriteString(c.out, text)
}

// Printf writes one informational line.
func (c *Console) Printf(format string, v ...any) {
	c.write("  " + fmt.Sprintf(format, v...))
}

// Warnf writes one warning line.
func (c *Console) Warnf(format string, v ...any) {
	c.write(c.style(warningStyle, fmt.Sprintf("  %s %s", warnMark, fmt.Sprintf(format, v...))))
}

// Section starts a new block of output.
func (c *Console) Section(title string) {
	c.write("\n" + c.style(sectionStyle, "  "+title))
}

// Servers prints a table of servers and their current state.
func (c *Console) Servers(servers []*cluster.Server) {
	if len(servers) == 0 {
		c.write(c.style(dimStyle, "  (no servers)"))
		return
	}
	c.write(c.serverTable(servers))
}

func (c *Console) serverTable(servers []*cluster.Server) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "FACET", "INDEX", "STATE", "ADDRESS")
	if c.color {
		t = t.BorderStyle(dimStyle).StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	}
	for _, s := range servers {
		address := ""
		if s.Machine != nil {
			address = s.Machine.PublicIP
		}
		t = t.Row(s.Name(), s.Spec.Facet, strconv.Itoa(s.Spec.Index), s.State(), address)
	}
	return t.String()
}

// Progress reports that a node entered a stage. Only shown when verbose.
func (c *Console) Progress(node string, stage launch.Stage) {
	if !c.verbose {
		return
	}
	c.write(c.style(dimStyle, fmt.Sprintf("  %s %s: %s", spinner, node, stage)))
}

// Outcome reports the final outcome of one node.
func (c *Console) Outcome(o cluster.NodeOutcome) {
	switch o.Kind {
	case cluster.Launched:
		line := fmt.Sprintf("  %s %s", checkMark, o.Name)
		if o.Computer != nil && o.Computer.Address != "" {
			line += " (" + o.Computer.Address + ")"
		}
		c.write(c.style(readyStyle, line))
	default:
		c.write(c.style(failedStyle, fmt.Sprintf("  %s %s: %s: %v", crossMark, o.Name, o.Kind, o.Err)))
	}
}

// Verdict prints the closing summary of a run.
func (c *Console) Verdict(v cluster.Verdict) {
	elapsed := formatDuration(c.now().Sub(c.start))
	var line string
	switch v.Kind {
	case cluster.AllHealthy:
		line = c.style(readyStyle, fmt.Sprintf("  %s All servers launched", checkMark))
	case cluster.NoOp:
		line = c.style(titleStyle, "  Nothing to launch")
	case cluster.Cancelled:
		line = c.style(warningStyle, fmt.Sprintf("  %s Launch cancelled; unfinished: %s", warnMark, strings.Join(v.Failed, ", ")))
	default:
		line = c.style(failedStyle, fmt.Sprintf("  %s %d server(s) failed: %s", crossMark, len(v.Failed), strings.Join(v.Failed, ", ")))
	}
	c.write("\n" + line + c.style(dimStyle, " in "+elapsed))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
