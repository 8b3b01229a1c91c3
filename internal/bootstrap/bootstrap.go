package bootstrap

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	authinadapter "routinectl/internal/modules/auth/adapter/in"
	authoutadapter "routinectl/internal/modules/auth/adapter/out"
	authin "routinectl/internal/modules/auth/port/in"
	authservice "routinectl/internal/modules/auth/service"
	authusecase "routinectl/internal/modules/auth/usecase"
	celebrationinadapter "routinectl/internal/modules/celebration/adapter/in"
	celebrationoutadapter "routinectl/internal/modules/celebration/adapter/out"
	celebrationin "routinectl/internal/modules/celebration/port/in"
	celebrationservice "routinectl/internal/modules/celebration/service"
	celebrationusecase "routinectl/internal/modules/celebration/usecase"
	historyinadapter "routinectl/internal/modules/history/adapter/in"
	historyoutadapter "routinectl/internal/modules/history/adapter/out"
	historyin "routinectl/internal/modules/history/port/in"
	historyusecase "routinectl/internal/modules/history/usecase"
	routineinadapter "routinectl/internal/modules/routine/adapter/in"
	routineoutadapter "routinectl/internal/modules/routine/adapter/out"
	routinein "routinectl/internal/modules/routine/port/in"
	routineusecase "routinectl/internal/modules/routine/usecase"
	runinadapter "routinectl/internal/modules/run/adapter/in"
	runoutadapter "routinectl/internal/modules/run/adapter/out"
	runin "routinectl/internal/modules/run/port/in"
	runusecase "routinectl/internal/modules/run/usecase"
	"routinectl/internal/platform/clock"
	"routinectl/internal/platform/config"
	"routinectl/internal/platform/httpapi"
	"routinectl/internal/platform/logging"
	"routinectl/internal/platform/sqlitestore"
	uiapp "routinectl/internal/ui/app"
)

type App struct {
	AuthCLI        authinadapter.CLIHandler
	RoutineCLI     routineinadapter.CLIHandler
	RunCLI         runinadapter.CLIHandler
	HistoryCLI     historyinadapter.CLIHandler
	CelebrationCLI celebrationinadapter.CLIHandler

	cfg         config.Config
	db          *sql.DB
	flush       func()
	auth        authin.Usecase
	routines    routinein.Usecase
	runs        runin.Usecase
	histories   historyin.Usecase
	celebration celebrationin.Usecase
}

// New wires every module against the configured API and the local SQLite
// database. Logs go to logOut.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	flush, err := logging.Setup(logOut, logging.Options{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	db, err := sqlitestore.Open(cfg.DBPath())
	if err != nil {
		flush()
		return nil, fmt.Errorf("open store: %w", err)
	}
	jar, err := sqlitestore.NewCookieJar(db)
	if err != nil {
		_ = db.Close()
		flush()
		return nil, fmt.Errorf("open cookie jar: %w", err)
	}
	client, err := httpapi.New(cfg.APIBaseURL, jar)
	if err != nil {
		_ = db.Close()
		flush()
		return nil, fmt.Errorf("new api client: %w", err)
	}

	authUC := authusecase.NewInteractor(
		authoutadapter.NewAPIGateway(client),
		authservice.NewCache(clock.SystemClock{}, cfg.SessionTTL),
	)
	runUC := runusecase.NewInteractor(runoutadapter.NewAPIGateway(client), runoutadapter.NewSQLitePayloadStore(db))
	routineUC := routineusecase.NewInteractor(routineoutadapter.NewAPIGateway(client), runUC)
	historyUC := historyusecase.NewInteractor(historyoutadapter.NewAPIGateway(client), historyoutadapter.NewMarkdownNoteStore())

	pluginLog := hclog.New(&hclog.LoggerOptions{
		Name:   "routinectl",
		Output: logOut,
		Level:  hclog.LevelFromString(cfg.LogLevel),
	})
	celebrationUC := celebrationusecase.NewInteractor(celebrationservice.NewCelebrationService(
		celebrationoutadapter.NewFileManifestStore(cfg.PluginDir()),
		celebrationoutadapter.NewGRPCHost(pluginLog),
	))

	return &App{
		AuthCLI:        authinadapter.NewCLIHandler(authUC),
		RoutineCLI:     routineinadapter.NewCLIHandler(routineUC),
		RunCLI:         runinadapter.NewCLIHandler(runUC),
		HistoryCLI:     historyinadapter.NewCLIHandler(historyUC),
		CelebrationCLI: celebrationinadapter.NewCLIHandler(celebrationUC),
		cfg:            cfg,
		db:             db,
		flush:          flush,
		auth:           authUC,
		routines:       routineUC,
		runs:           runUC,
		histories:      historyUC,
		celebration:    celebrationUC,
	}, nil
}

func (a *App) Close() error {
	a.flush()
	return a.db.Close()
}

// LogFile opens <data-dir>/routinectl.log for appending. The TUI owns the
// terminal, so its logs cannot go to stderr.
func LogFile(cfg config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return os.OpenFile(filepath.Join(cfg.DataDir, "routinectl.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func RunTUI(app *App, startPath string) error {
	model := uiapp.NewModel(app.auth, app.routines, app.runs, app.histories, app.celebration, uiapp.Options{
		ElapsedRefresh: app.cfg.ElapsedRefresh,
		ExportDir:      filepath.Join(app.cfg.DataDir, "notes"),
		StartPath:      startPath,
		TerminalDark:   lipgloss.HasDarkBackground(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
