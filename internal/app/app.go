package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skelligg/htf-collide/internal/packs"
	"github.com/Skelligg/htf-collide/internal/practice"
	"github.com/Skelligg/htf-collide/internal/query"
	"github.com/Skelligg/htf-collide/internal/quest"
	"github.com/Skelligg/htf-collide/internal/sandbox"
	"github.com/Skelligg/htf-collide/internal/state"
	"github.com/Skelligg/htf-collide/internal/telemetry"
	"github.com/Skelligg/htf-collide/internal/ui"
)

const requestTimeout = 20 * time.Second

type App struct {
	cfg Config

	logger   *telemetry.Logger
	store    state.Store
	svc      *quest.Service
	view     ui.View
	practice *practice.Server

	sessionID string

	mu sync.Mutex
	// epoch increments on every navigation; responses carrying an older
	// epoch are dropped instead of applied to the wrong screen.
	epoch     uint64
	problemID quest.ProblemID
	problem   quest.Problem
	inFlight  map[quest.MissionID]bool
	outcomes  map[quest.MissionID]ui.Outcome

	engine   *sandbox.Engine
	sbPhase  ui.SandboxPhase
	sbOutput string
	sbNotice string
	sbGuess  ui.GuessOutcome
}

func New(cfg Config) (*App, error) {
	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.StyleVariant,
		EditorSeed:   sandbox.DefaultSnippet,
	})
	return newApp(cfg, view)
}

func newApp(cfg Config, view ui.View) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogPath, telemetry.LevelInfo)
	if err != nil {
		return nil, err
	}

	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	baseURL := cfg.BaseURL
	var practiceSrv *practice.Server
	if cfg.Practice {
		pack := packs.Builtin()
		if cfg.PackPath != "" {
			pack, err = packs.Load(cfg.PackPath)
			if err != nil {
				_ = store.Close()
				_ = logger.Close()
				return nil, fmt.Errorf("load pack: %w", err)
			}
		}
		practiceSrv = practice.New(pack, practice.WithSecret(cfg.SandboxSecret), practice.WithLogger(logger))
		if err := practiceSrv.Start(cfg.PracticeAddr); err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, fmt.Errorf("start practice server: %w", err)
		}
		baseURL = practiceSrv.BaseURL()
	}

	client := quest.NewClient(baseURL, cfg.RequestTimeout)
	svc := quest.NewService(client, query.New())

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		svc:       svc,
		view:      view,
		practice:  practiceSrv,
		sessionID: uuid.NewString(),
		inFlight:  map[quest.MissionID]bool{},
		outcomes:  map[quest.MissionID]ui.Outcome{},
	}
	view.SetController(a)
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"session":  a.sessionID,
		"practice": a.practice != nil,
	})

	go func() {
		<-ctx.Done()
		a.view.Stop()
	}()
	go a.refreshLanding()

	return a.view.Run()
}

func (a *App) Close() error {
	if a.practice != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.practice.Shutdown(ctx)
		cancel()
	}
	err := a.store.Close()
	if cerr := a.logger.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) refreshLanding() {
	a.view.SetScreen(ui.ScreenLanding)
	a.view.SetLanding(ui.LandingState{Loading: true})

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	summaries, err := a.svc.Summaries(ctx)
	if err != nil {
		a.logger.Error("quest.summaries_failed", map[string]any{"error": err.Error()})
		a.view.SetLanding(ui.LandingState{Err: "Could not reach the quest server."})
		return
	}
	a.view.SetLanding(a.landingState(ctx, summaries))
}

func (a *App) landingState(ctx context.Context, summaries []quest.ProblemSummary) ui.LandingState {
	doors := make([]ui.DoorCard, 0, len(summaries))
	prevSolved := true
	for _, s := range summaries {
		solved, err := a.store.ProblemSolved(ctx, s.ProblemID)
		if err != nil {
			a.logger.Error("state.problem_solved_failed", map[string]any{"problem": s.ProblemID, "error": err.Error()})
			solved = false
		}
		doors = append(doors, ui.DoorCard{
			ProblemID:   s.ProblemID,
			Title:       s.Name,
			Description: s.Description,
			Locked:      !prevSolved,
			Solved:      solved,
		})
		prevSolved = solved
	}

	stats := ""
	if summary, err := a.store.GetSummary(ctx); err == nil {
		stats = fmt.Sprintf("Attempts: %d  Correct: %d  Sandbox runs: %d",
			summary.Attempts, summary.Correct, summary.SandboxRuns)
	}
	return ui.LandingState{Doors: doors, StatsLine: stats}
}

func (a *App) OnRefreshQuest() {
	a.svc.InvalidateSummaries()
	a.refreshLanding()
}

func (a *App) OnEnterProblem(id quest.ProblemID) {
	a.mu.Lock()
	a.epoch++
	epoch := a.epoch
	a.problemID = id
	a.problem = quest.Problem{}
	a.inFlight = map[quest.MissionID]bool{}
	a.outcomes = map[quest.MissionID]ui.Outcome{}
	a.sbPhase = ui.SandboxLoading
	a.sbOutput = ""
	a.sbNotice = ""
	a.sbGuess = ui.GuessNone
	a.mu.Unlock()

	a.view.SetScreen(ui.ScreenProblem)
	a.loadProblem(id, epoch)
}

func (a *App) OnRetryProblem() {
	a.mu.Lock()
	id := a.problemID
	epoch := a.epoch
	a.mu.Unlock()
	if id == 0 {
		return
	}
	a.svc.InvalidateProblem(id)
	a.loadProblem(id, epoch)
}

func (a *App) loadProblem(id quest.ProblemID, epoch uint64) {
	a.view.SetProblem(ui.ProblemState{ProblemID: id, Loading: true})

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	problem, err := a.svc.Problem(ctx, id)

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	if err != nil {
		a.mu.Unlock()
		a.logger.Error("quest.problem_failed", map[string]any{"problem": id, "error": err.Error()})
		a.view.SetProblem(ui.ProblemState{ProblemID: id, Err: "Could not load this problem."})
		return
	}
	a.problem = problem
	st := a.problemStateLocked(id)
	hasSandbox := false
	for _, m := range problem.Missions {
		if m.HasSandbox() {
			hasSandbox = true
		}
	}
	a.mu.Unlock()

	a.view.SetProblem(st)
	if hasSandbox {
		go a.ensureSandbox(epoch)
	}
}

func (a *App) problemStateLocked(id quest.ProblemID) ui.ProblemState {
	p := a.problem
	st := ui.ProblemState{
		ProblemID:   id,
		Name:        p.Name,
		Description: p.Description,
		Score:       p.Score,
		Solved:      p.Solved,
	}
	for _, m := range p.Missions {
		st.Missions = append(st.Missions, ui.MissionRow{
			ID:                m.ID,
			Name:              m.Name,
			Objective:         m.Objective,
			Parameters:        m.Parameters,
			RemainingAttempts: m.RemainingAttempts,
			Difficulty:        m.Difficulty,
			Solved:            m.Solved,
			Sandbox:           m.HasSandbox(),
			Outcome:           a.outcomes[m.ID],
		})
	}
	return st
}

func (a *App) ensureSandbox(epoch uint64) {
	a.setSandboxPhase(epoch, ui.SandboxLoading)

	engine, err := sandbox.Ensure()

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	if err != nil {
		a.mu.Unlock()
		a.logger.Error("sandbox.ensure_failed", map[string]any{"error": err.Error()})
		a.setSandboxPhase(epoch, ui.SandboxUnavailable)
		return
	}
	a.engine = engine
	a.mu.Unlock()
	a.setSandboxPhase(epoch, ui.SandboxReady)
}

func (a *App) setSandboxPhase(epoch uint64, phase ui.SandboxPhase) {
	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	a.sbPhase = phase
	st := a.sandboxStateLocked()
	a.mu.Unlock()
	a.view.SetSandbox(st)
}

func (a *App) sandboxStateLocked() ui.SandboxState {
	return ui.SandboxState{
		Phase:  a.sbPhase,
		Output: a.sbOutput,
		Notice: a.sbNotice,
		Guess:  a.sbGuess,
	}
}

func (a *App) OnBackToLanding() {
	a.mu.Lock()
	a.epoch++
	a.problemID = 0
	a.mu.Unlock()
	a.refreshLanding()
}

func (a *App) OnSubmitAnswer(id quest.MissionID, answer string) {
	a.mu.Lock()
	if a.inFlight[id] {
		a.mu.Unlock()
		a.view.FlashStatus("Verification already in progress.")
		return
	}
	a.inFlight[id] = true
	a.outcomes[id] = ui.OutcomePending
	epoch := a.epoch
	problemID := a.problemID
	a.mu.Unlock()

	a.view.SetMissionOutcome(id, ui.OutcomePending)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	correct, err := a.svc.Verify(ctx, quest.VerifyRequest{
		ProblemID: problemID,
		MissionID: id,
		Answer:    answer,
	})

	outcome := ui.OutcomeCorrect
	result := state.OutcomeCorrect
	switch {
	case err != nil:
		outcome = ui.OutcomeError
		result = state.OutcomeError
		a.logger.Error("quest.verify_failed", map[string]any{"mission": id, "error": err.Error()})
	case !correct:
		outcome = ui.OutcomeWrong
		result = state.OutcomeWrong
	}

	a.mu.Lock()
	delete(a.inFlight, id)
	stale := a.epoch != epoch
	if !stale {
		a.outcomes[id] = outcome
	}
	a.mu.Unlock()

	if rerr := a.store.RecordVerification(ctx, state.Verification{
		SessionID: a.sessionID,
		ProblemID: problemID,
		MissionID: id,
		Outcome:   result,
		At:        time.Now(),
	}); rerr != nil {
		a.logger.Error("state.record_verification_failed", map[string]any{"error": rerr.Error()})
	}

	if stale {
		return
	}
	a.view.SetMissionOutcome(id, outcome)

	if outcome == ui.OutcomeCorrect {
		a.refreshProblemDetail(problemID, epoch)
	}
}

// refreshProblemDetail re-reads the detail after a correct verification so
// solved flags and attempt counts catch up. Outcomes already shown survive.
func (a *App) refreshProblemDetail(id quest.ProblemID, epoch uint64) {
	a.svc.InvalidateProblem(id)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	problem, err := a.svc.Problem(ctx, id)
	if err != nil {
		a.logger.Error("quest.problem_refresh_failed", map[string]any{"problem": id, "error": err.Error()})
		return
	}

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	a.problem = problem
	st := a.problemStateLocked(id)
	a.mu.Unlock()
	a.view.SetProblem(st)
}

func (a *App) OnRunCode(code string) {
	a.mu.Lock()
	engine := a.engine
	ready := a.sbPhase == ui.SandboxReady
	epoch := a.epoch
	a.mu.Unlock()

	if engine == nil || !ready {
		a.view.FlashStatus("Sandbox is not ready.")
		return
	}

	a.setSandboxPhase(epoch, ui.SandboxRunning)

	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.SandboxTimeout+time.Second)
	defer cancel()

	result, err := engine.Execute(ctx, code, sandbox.Params{
		Secret:  a.cfg.SandboxSecret,
		Timeout: a.cfg.SandboxTimeout,
	})
	if errors.Is(err, sandbox.ErrBusy) {
		a.view.FlashStatus("A run is already in progress.")
		return
	}
	duration := time.Since(started)

	a.mu.Lock()
	if a.epoch != epoch {
		a.mu.Unlock()
		return
	}
	a.sbPhase = ui.SandboxReady
	a.sbNotice = ""
	output := result.Output
	if err != nil {
		a.logger.Error("sandbox.run_failed", map[string]any{"error": err.Error()})
		output = appendLine(output, "Execution failed: "+err.Error())
	} else if result.Err != "" {
		output = appendLine(output, "Execution stopped: "+result.Err)
	}
	a.sbOutput = output
	if result.Correct {
		a.sbNotice = "Your code found the correct answer!"
	}
	st := a.sandboxStateLocked()
	a.mu.Unlock()

	a.view.SetSandbox(st)

	if rerr := a.store.RecordSandboxRun(context.Background(), state.SandboxRun{
		SessionID: a.sessionID,
		Correct:   result.Correct,
		Duration:  duration,
		At:        time.Now(),
	}); rerr != nil {
		a.logger.Error("state.record_sandbox_run_failed", map[string]any{"error": rerr.Error()})
	}
}

func (a *App) OnQuickGuess(input string) {
	verdict := sandbox.QuickGuess(input, a.cfg.SandboxSecret)

	a.mu.Lock()
	switch verdict {
	case sandbox.GuessCorrect:
		a.sbGuess = ui.GuessRight
	case sandbox.GuessWrong:
		a.sbGuess = ui.GuessWrong
	default:
		a.sbGuess = ui.GuessNone
	}
	st := a.sandboxStateLocked()
	a.mu.Unlock()

	a.view.SetSandbox(st)
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", map[string]any{"session": a.sessionID})
	a.view.Stop()
}

func appendLine(s, line string) string {
	if s == "" {
		return line + "\n"
	}
	if s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s + line + "\n"
}
