package cli

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/closeboard/internal/app"
)

var cliNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type cliEnv struct {
	dir      string
	enqueued []string
	enqueue  bool
}

// open builds file-backed services so state survives between invocations.
func (e *cliEnv) open(ctx context.Context) (*app.Services, error) {
	cfg := &app.Config{StoreBackend: "file", StoreDir: e.dir}
	services, err := app.OpenServices(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	if err != nil {
		return nil, err
	}
	services.Closing.WithNow(func() time.Time { return cliNow })
	return services, nil
}

func (e *cliEnv) run(t *testing.T, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	env := &Env{
		Out:    stdout,
		Err:    stderr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Open:   e.open,
	}
	if e.enqueue {
		env.Enqueue = func(ctx context.Context, trigger string) error {
			e.enqueued = append(e.enqueued, trigger)
			return nil
		}
	}
	fs := flag.NewFlagSet("closectl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "closectl")
	Register(commander, env)
	require.NoError(t, fs.Parse(args))
	return commander.Execute(context.Background()), stdout.String(), stderr.String()
}

func (e *cliEnv) companyID(t *testing.T, code string) string {
	t.Helper()
	services, err := e.open(context.Background())
	require.NoError(t, err)
	for _, c := range services.Registry.List(false) {
		if c.Code == code {
			return c.ID
		}
	}
	t.Fatalf("company %s not found", code)
	return ""
}

func newCLIEnv(t *testing.T) *cliEnv {
	return &cliEnv{dir: t.TempDir()}
}

func TestCompanyCommands(t *testing.T) {
	env := newCLIEnv(t)

	status, out, _ := env.run(t, "company-add", "-code", "acme", "-start", "2024-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "ACME")
	require.Contains(t, out, "Jan/2024")

	status, _, errOut := env.run(t, "company-add", "-code", "ACME")
	require.Equal(t, subcommands.ExitFailure, status)
	require.Contains(t, errOut, "Empresa com este código já existe!")

	status, _, _ = env.run(t, "company-add")
	require.Equal(t, subcommands.ExitUsageError, status)

	id := env.companyID(t, "ACME")
	status, out, _ = env.run(t, "company-toggle", "-id", id)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "ACME inativa")

	status, out, _ = env.run(t, "companies")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "CÓDIGO")
	require.Contains(t, out, "não")

	status, out, _ = env.run(t, "company-start", "-id", id, "-start", "2024-03")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "Mar/2024")

	status, _, _ = env.run(t, "company-remove", "-id", id)
	require.Equal(t, subcommands.ExitSuccess, status)
	status, _, _ = env.run(t, "company-remove", "-id", id)
	require.Equal(t, subcommands.ExitFailure, status)
}

func TestBoardMoveAndNotes(t *testing.T) {
	env := newCLIEnv(t)
	status, _, _ := env.run(t, "company-add", "-code", "ACME", "-start", "2024-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	id := env.companyID(t, "ACME")

	status, out, _ := env.run(t, "move", "-id", id, "-c", "2024-02", "-status", "concluido")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "Fev/2024: Concluído")

	status, out, _ = env.run(t, "board", "-c", "2024-02")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "Fechamentos Fev/2024")
	require.Contains(t, out, "Concluído (1)")
	require.Contains(t, out, "✓ 15/03/2024")

	status, out, _ = env.run(t, "board")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "Fechamentos Mar/2024")
	require.Contains(t, out, "Pendente (1)")

	status, out, _ = env.run(t, "notes", "-id", id, "-c", "2024-02", "-text", "  conferir folha ")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "conferir folha")

	status, _, _ = env.run(t, "move", "-id", id, "-status", "arquivado")
	require.Equal(t, subcommands.ExitUsageError, status)
}

func TestReportCommandWritesFile(t *testing.T) {
	env := newCLIEnv(t)
	env.run(t, "company-add", "-code", "ACME", "-start", "2024-01")
	out := t.TempDir()

	status, stdout, _ := env.run(t, "report", "-c", "2024-02", "-format", "csv", "-dir", out)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, stdout, "1 linhas")

	raw, err := os.ReadFile(filepath.Join(out, "Fechamento_Fev-2024.csv"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "ACME")

	status, _, _ = env.run(t, "report", "-c", "2024-02", "-dir", out)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.FileExists(t, filepath.Join(out, "Fechamento_Fev-2024.xlsx"))

	status, _, _ = env.run(t, "report", "-format", "pdf")
	require.Equal(t, subcommands.ExitUsageError, status)
}

func TestDumpAndImport(t *testing.T) {
	src := newCLIEnv(t)
	src.run(t, "company-add", "-code", "ACME", "-start", "2024-02")
	src.run(t, "company-add", "-code", "BETA", "-start", "2024-03")
	exported := t.TempDir()
	status, _, _ := src.run(t, "dump", "-dir", exported)
	require.Equal(t, subcommands.ExitSuccess, status)

	dst := newCLIEnv(t)
	status, out, _ := dst.run(t, "import", "-dir", exported)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "2 empresas, 3 fechamentos")

	services, err := dst.open(context.Background())
	require.NoError(t, err)
	require.Len(t, services.Store.Snapshot().Records, 3)
}

func TestImportRejectsOrphans(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, companiesFile), []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, recordsFile),
		[]byte(`[{"id":"r1","empresaId":"ghost","competencia":"2024-01","status":"pendente"}]`), 0o644))

	env := newCLIEnv(t)
	status, _, errOut := env.run(t, "import", "-dir", dir)
	require.Equal(t, subcommands.ExitFailure, status)
	require.Contains(t, errOut, "ghost")
}

func TestImportWithoutRecordsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, companiesFile),
		[]byte(`[{"id":"c1","codigo":"ACME","ativo":true,"competenciaInicial":"2024-03"}]`), 0o644))

	env := newCLIEnv(t)
	status, out, _ := env.run(t, "import", "-dir", dir)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "1 empresas, 0 fechamentos")
}

func TestRollover(t *testing.T) {
	env := newCLIEnv(t)
	env.enqueue = true

	status, out, _ := env.run(t, "rollover")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "enfileirado")
	require.Equal(t, []string{"closectl"}, env.enqueued)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, companiesFile),
		[]byte(`[{"id":"c1","codigo":"ACME","ativo":true,"competenciaInicial":"2024-01"}]`), 0o644))
	env.run(t, "import", "-dir", dir)

	status, out, _ = env.run(t, "rollover", "-local")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out, "3 fechamentos criados")
	require.Len(t, env.enqueued, 1)
}
