package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/odyssey-erp/closeboard/internal/app"
	"github.com/odyssey-erp/closeboard/internal/competency"
)

type companyAddCmd struct {
	env   *Env
	code  string
	start string
}

func (*companyAddCmd) Name() string     { return "company-add" }
func (*companyAddCmd) Synopsis() string { return "register a company and create its closing history" }
func (*companyAddCmd) Usage() string {
	return `closectl company-add -code <code> [-start YYYY-MM]

  Registers an active company. Closing records are created from the start
  competency (default: current month) through the current month.
`
}

func (c *companyAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "Company code, stored upper-cased.")
	f.StringVar(&c.start, "start", "", "Start competency (YYYY-MM).")
}

func (c *companyAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" {
		return c.env.usageError("-code is required")
	}
	return c.env.run(ctx, func(s *app.Services) error {
		start := s.Closing.CurrentCompetency()
		if c.start != "" {
			parsed, err := competency.Parse(c.start)
			if err != nil {
				return err
			}
			start = parsed
		}
		company, err := s.Registry.AddCompany(ctx, c.code, start)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%s\t%s\tinício %s\n", company.ID, company.Code, company.StartCompetency.Label())
		return nil
	})
}

type companyListCmd struct {
	env    *Env
	byCode bool
}

func (*companyListCmd) Name() string     { return "companies" }
func (*companyListCmd) Synopsis() string { return "list registered companies" }
func (*companyListCmd) Usage() string {
	return `closectl companies [-sort]
`
}

func (c *companyListCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.byCode, "sort", false, "Sort by code instead of registration order.")
}

func (c *companyListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(s *app.Services) error {
		tw := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCÓDIGO\tINÍCIO\tATIVO")
		for _, company := range s.Registry.List(c.byCode) {
			active := "sim"
			if !company.Active {
				active = "não"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", company.ID, company.Code, company.StartCompetency.Label(), active)
		}
		return tw.Flush()
	})
}

type companyStartCmd struct {
	env   *Env
	id    string
	start string
}

func (*companyStartCmd) Name() string { return "company-start" }
func (*companyStartCmd) Synopsis() string {
	return "change a company's start competency (discards its closing history)"
}
func (*companyStartCmd) Usage() string {
	return `closectl company-start -id <company id> -start YYYY-MM

  Every closing record of the company is discarded, completed ones included,
  and the history is recreated as Pending from the new start.
`
}

func (c *companyStartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Company id.")
	f.StringVar(&c.start, "start", "", "New start competency (YYYY-MM).")
}

func (c *companyStartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" || c.start == "" {
		return c.env.usageError("-id and -start are required")
	}
	start, err := competency.Parse(c.start)
	if err != nil {
		return c.env.usageError(err.Error())
	}
	return c.env.run(ctx, func(s *app.Services) error {
		company, err := s.Registry.UpdateStartCompetency(ctx, c.id, start)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%s agora inicia em %s\n", company.Code, company.StartCompetency.Label())
		return nil
	})
}

type companyToggleCmd struct {
	env *Env
	id  string
}

func (*companyToggleCmd) Name() string     { return "company-toggle" }
func (*companyToggleCmd) Synopsis() string { return "activate or deactivate a company" }
func (*companyToggleCmd) Usage() string {
	return `closectl company-toggle -id <company id>
`
}

func (c *companyToggleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Company id.")
}

func (c *companyToggleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.env.usageError("-id is required")
	}
	return c.env.run(ctx, func(s *app.Services) error {
		company, err := s.Registry.ToggleActive(ctx, c.id)
		if err != nil {
			return err
		}
		state := "ativa"
		if !company.Active {
			state = "inativa"
		}
		fmt.Fprintf(c.env.Out, "%s %s\n", company.Code, state)
		return nil
	})
}

type companyRemoveCmd struct {
	env *Env
	id  string
}

func (*companyRemoveCmd) Name() string     { return "company-remove" }
func (*companyRemoveCmd) Synopsis() string { return "delete a company and all its closing records" }
func (*companyRemoveCmd) Usage() string {
	return `closectl company-remove -id <company id>
`
}

func (c *companyRemoveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Company id.")
}

func (c *companyRemoveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.env.usageError("-id is required")
	}
	return c.env.run(ctx, func(s *app.Services) error {
		return s.Registry.RemoveCompany(ctx, c.id)
	})
}
