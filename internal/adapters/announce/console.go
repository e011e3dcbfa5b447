package announce

// console.go — announcement sink that writes to the terminal.
// Settlement results print as one-liners, leaderboards as tables.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/emarden/agentarena/internal/domain"
)

// Console implements ports.Announcer.
type Console struct {
	out io.Writer
}

// NewConsole creates an announcer that writes to stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter creates an announcer for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Announce prints a one-line result message with a timestamp.
func (c *Console) Announce(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(c.out, "[%s] %s\n", time.Now().Format("15:04:05"), msg)
	return err
}

// AnnounceLeaderboard renders the settled scores of one competition,
// best score first.
func (c *Console) AnnounceLeaderboard(_ context.Context, comp domain.Competition, scores []domain.Score) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintf(c.out, "[%s] %s settled with no participants\n",
			time.Now().Format("15:04:05"), comp.Slug)
		return err
	}

	fmt.Fprintf(c.out, "\n[%s] %s settled: outcome %s, %d participants\n",
		time.Now().Format("15:04:05"), comp.Slug, scores[0].Outcome, len(scores))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Agent", "Action", "Score", "PnL", "Fee", "Net")

	for i, sc := range scores {
		table.Append(
			fmt.Sprintf("%d", i+1),
			sc.AgentID,
			string(sc.Action),
			fmt.Sprintf("%.4f", sc.Value),
			fmt.Sprintf("$%.2f", sc.PnL),
			fmt.Sprintf("$%.2f", sc.Fee),
			fmt.Sprintf("$%.2f", sc.PnL-sc.Fee),
		)
	}
	table.Render()
	return nil
}
