package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/odyssey-erp/closeboard/internal/app"
	"github.com/odyssey-erp/closeboard/internal/close/export"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/store"
)

const (
	companiesFile = "empresas.json"
	recordsFile   = "fechamentos.json"
)

type reportCmd struct {
	env    *Env
	comp   string
	status string
	format string
	dir    string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "export the closing report as csv or xlsx" }
func (*reportCmd) Usage() string {
	return `closectl report [-c YYYY-MM] [-status concluido] [-format xlsx|csv] [-dir .]

  Writes Fechamento_<Mês>-<Ano>.<ext> into -dir.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.comp, "c", "", "Competency (YYYY-MM), defaults to the current month.")
	f.StringVar(&c.status, "status", "", "Only rows with this status.")
	f.StringVar(&c.format, "format", "xlsx", "Output format: xlsx or csv.")
	f.StringVar(&c.dir, "dir", ".", "Output directory.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "xlsx" && c.format != "csv" {
		return c.env.usageError("-format must be xlsx or csv")
	}
	var onlyStatus *domain.Status
	if c.status != "" {
		status, err := domain.ParseStatus(c.status)
		if err != nil {
			return c.env.usageError(err.Error())
		}
		onlyStatus = &status
	}
	return c.env.run(ctx, func(s *app.Services) error {
		comp, err := competencyFlag(s, c.comp)
		if err != nil {
			return err
		}
		rows, err := s.Closing.ReportRows(ctx, comp, onlyStatus)
		if err != nil {
			return err
		}
		path := filepath.Join(c.dir, export.FileName(comp, c.format))
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		if c.format == "csv" {
			err = export.WriteReportCSV(file, rows)
		} else {
			err = export.WriteReportXLSX(file, rows)
		}
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%d linhas em %s\n", len(rows), path)
		return nil
	})
}

type importCmd struct {
	env *Env
	dir string
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "replace all data with empresas.json and fechamentos.json"
}
func (*importCmd) Usage() string {
	return `closectl import -dir <directory>

  Reads empresas.json and fechamentos.json (optional) from -dir and replaces
  the stored dataset. Nothing is written when the files are inconsistent.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Directory holding the JSON files.")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		return c.env.usageError("-dir is required")
	}
	data, err := readDataset(c.dir)
	if err != nil {
		fmt.Fprintln(c.env.Err, err)
		return subcommands.ExitFailure
	}
	return c.env.run(ctx, func(s *app.Services) error {
		if err := s.Store.Replace(ctx, data); err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%d empresas, %d fechamentos importados\n", len(data.Companies), len(data.Records))
		return nil
	})
}

func readDataset(dir string) (store.Dataset, error) {
	var data store.Dataset
	if err := readJSON(filepath.Join(dir, companiesFile), &data.Companies); err != nil {
		return store.Dataset{}, err
	}
	err := readJSON(filepath.Join(dir, recordsFile), &data.Records)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return store.Dataset{}, err
	}
	if data.Companies == nil {
		data.Companies = []domain.Company{}
	}
	if data.Records == nil {
		data.Records = []domain.ClosingRecord{}
	}
	return data, nil
}

func readJSON(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

type dumpCmd struct {
	env *Env
	dir string
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "write the dataset as empresas.json and fechamentos.json" }
func (*dumpCmd) Usage() string {
	return `closectl dump -dir <directory>
`
}

func (c *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "Output directory.")
}

func (c *dumpCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dir == "" {
		return c.env.usageError("-dir is required")
	}
	return c.env.run(ctx, func(s *app.Services) error {
		data := s.Store.Snapshot()
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(c.dir, companiesFile), data.Companies); err != nil {
			return err
		}
		return writeJSON(filepath.Join(c.dir, recordsFile), data.Records)
	})
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

type rolloverCmd struct {
	env   *Env
	local bool
}

func (*rolloverCmd) Name() string { return "rollover" }
func (*rolloverCmd) Synopsis() string {
	return "create missing closing records through the current month"
}
func (*rolloverCmd) Usage() string {
	return `closectl rollover [-local]

  Enqueues a rollover for the worker. With -local the records are created
  in-process instead.
`
}

func (c *rolloverCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.local, "local", false, "Run in-process instead of enqueueing.")
}

func (c *rolloverCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.local && c.env.Enqueue != nil {
		if err := c.env.Enqueue(ctx, "closectl"); err != nil {
			fmt.Fprintln(c.env.Err, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(c.env.Out, "rollover enfileirado")
		return subcommands.ExitSuccess
	}
	return c.env.run(ctx, func(s *app.Services) error {
		created, err := s.Closing.MaterializeAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.env.Out, "%d fechamentos criados\n", created)
		return nil
	})
}
