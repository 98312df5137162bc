package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/odyssey-erp/closeboard/internal/app"
	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
)

// competencyFlag parses -c, defaulting to the current month.
func competencyFlag(s *app.Services, value string) (competency.YearMonth, error) {
	if value == "" {
		return s.Closing.CurrentCompetency(), nil
	}
	return competency.Parse(value)
}

type boardCmd struct {
	env  *Env
	comp string
}

func (*boardCmd) Name() string     { return "board" }
func (*boardCmd) Synopsis() string { return "print the closing board of a competency" }
func (*boardCmd) Usage() string {
	return `closectl board [-c YYYY-MM]
`
}

func (c *boardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.comp, "c", "", "Competency (YYYY-MM), defaults to the current month.")
}

func (c *boardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.Services) error {
		comp, err := competencyFlag(s, c.comp)
		if err != nil {
			return err
		}
		b, err := s.Closing.Board(ctx, comp)
		if err != nil {
			return err
		}
		return printBoard(c.env.Out, b)
	})
}

func printBoard(w io.Writer, b close.Board) error {
	fmt.Fprintf(w, "Fechamentos %s\n", b.Competency.Label())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted} {
		cards := b.Column(status)
		fmt.Fprintf(tw, "\n%s (%d)\n", status.Label(), len(cards))
		for _, card := range cards {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", card.Company.Code, card.Info, card.Company.ID)
		}
	}
	return tw.Flush()
}

type moveCmd struct {
	env    *Env
	id     string
	comp   string
	status string
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "move a company's closing to another status" }
func (*moveCmd) Usage() string {
	return `closectl move -id <company id> -status pendente|em-andamento|concluido [-c YYYY-MM]
`
}

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Company id.")
	f.StringVar(&c.comp, "c", "", "Competency (YYYY-MM), defaults to the current month.")
	f.StringVar(&c.status, "status", "", "Target status.")
}

func (c *moveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.env.usageError("-id is required")
	}
	status, err := domain.ParseStatus(c.status)
	if err != nil {
		return c.env.usageError(err.Error())
	}
	return c.env.run(ctx, func(s *app.Services) error {
		comp, err := competencyFlag(s, c.comp)
		if err != nil {
			return err
		}
		rec, err := s.Closing.Transition(ctx, c.id, comp, status)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%s %s: %s\n", c.id, rec.Competency.Label(), rec.Status.Label())
		return nil
	})
}

type notesCmd struct {
	env  *Env
	id   string
	comp string
	text string
}

func (*notesCmd) Name() string     { return "notes" }
func (*notesCmd) Synopsis() string { return "set the notes of a closing record" }
func (*notesCmd) Usage() string {
	return `closectl notes -id <company id> [-c YYYY-MM] -text "..."

  An empty -text clears the notes.
`
}

func (c *notesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Company id.")
	f.StringVar(&c.comp, "c", "", "Competency (YYYY-MM), defaults to the current month.")
	f.StringVar(&c.text, "text", "", "Notes.")
}

func (c *notesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.env.usageError("-id is required")
	}
	return c.env.run(ctx, func(s *app.Services) error {
		comp, err := competencyFlag(s, c.comp)
		if err != nil {
			return err
		}
		rec, err := s.Closing.SetNotes(ctx, c.id, comp, c.text)
		if err != nil {
			return err
		}
		notes := rec.NotesText()
		if notes == "" {
			notes = close.Placeholder
		}
		fmt.Fprintf(c.env.Out, "%s %s: %s\n", c.id, rec.Competency.Label(), notes)
		return nil
	})
}
