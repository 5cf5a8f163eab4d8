package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/config"
	"github.com/frontnickson/toolrole-sub001/internal/client/repositories/prefs"
	"github.com/frontnickson/toolrole-sub001/internal/client/services"
	"github.com/frontnickson/toolrole-sub001/internal/client/storage"
	"github.com/frontnickson/toolrole-sub001/internal/client/store"
	"github.com/frontnickson/toolrole-sub001/internal/client/token"
	"github.com/frontnickson/toolrole-sub001/internal/client/wizard"
	"github.com/frontnickson/toolrole-sub001/internal/filex"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

type App struct {
	config         *config.Config
	db             *sql.DB
	state          *store.Store
	authService    services.AuthService
	profileService services.ProfileService
	newWizard      func(wizard.Variant) (wizardRunner, error)
	log            logging.Logger
	reader         *bufio.Reader
	out            io.Writer

	statusMu      sync.Mutex
	status        string
	statusVersion uint64
	unsubscribe   func()
}

// NewApp opens the local state database and wires the session services
// against the backend named in c.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.StatePath); err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, c.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	tokens := token.NewStore()
	api, err := client.NewHTTPClient(c.APIBaseURL, tokens, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := prefs.NewSQLiteRepository(db)
	state := store.New()

	as := services.NewAuthService(services.AuthDeps{
		API:      api,
		Tokens:   tokens,
		State:    state,
		Prefs:    repo,
		Hydrator: services.NewBoardHydrator(api, repo, log),
		Logger:   log,
		Timeout:  c.RequestTimeout,
	})
	ps := services.NewProfileService(services.ProfileDeps{
		API:     api,
		State:   state,
		Prefs:   repo,
		Logger:  log,
		Timeout: c.RequestTimeout,
	})

	a := &App{
		config:         c,
		db:             db,
		state:          state,
		authService:    as,
		profileService: ps,
		log:            log,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}
	a.newWizard = func(v wizard.Variant) (wizardRunner, error) {
		return wizard.New(v, wizard.Deps{
			Session:        as,
			Profile:        ps,
			State:          state,
			Logger:         log,
			ProbeExistence: true,
		})
	}
	a.watchState()
	return a, nil
}

// watchState keeps the prompt status in step with the store.
func (a *App) watchState() {
	a.unsubscribe = a.state.Subscribe(a.setStatus)
	a.setStatus(a.state.Snapshot())
}

func statusOf(s store.State) string {
	switch {
	case s.IsLoading:
		return "working"
	case s.IsAuthenticated:
		return s.CurrentUser.Username
	default:
		return "signed out"
	}
}

// setStatus ignores snapshots older than the one already shown.
func (a *App) setStatus(s store.State) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	if s.Version < a.statusVersion {
		return
	}
	a.status = statusOf(s)
	a.statusVersion = s.Version
}

func (a *App) getStatus() string {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	return a.status
}

func (a *App) isLoggedIn() bool {
	return a.state != nil && a.state.IsAuthenticated()
}

// Run restores a persisted session, if any, and then blocks in the REPL
// until the user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Task board CLI (type 'help' for commands)")
	if err := a.authService.Restore(ctx); err != nil {
		switch client.KindOf(err) {
		case client.KindSessionExpired, client.KindNetwork:
			printlnFn(err.Error())
		default:
			a.log.Debug(ctx, "no session restored", "err", err)
		}
	} else if u := a.state.CurrentUser(); u != nil {
		printlnFn("Welcome back, " + u.Username + "!")
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases the state database. It is safe to call more than once.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "close state database", "err", err)
		}
		a.db = nil
	}
}
