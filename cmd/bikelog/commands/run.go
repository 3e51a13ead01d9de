package commands

import (
	"bikelog/internal/history"
	"bikelog/internal/settings"
	"bikelog/internal/trip"
	"bikelog/lib/keychain"
	"bikelog/lib/platforms/incentive"
	"bikelog/lib/restyutil"
	"bikelog/lib/telemetry"
	"bikelog/lib/timezone"
	"bikelog/lib/useragent"
	"bikelog/lib/wifi"
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mazen160/go-random"
)

// PasswordEnv is consulted when the keychain has no password.
const PasswordEnv = "BIKELOG_PASSWORD"

const defaultPoolsFile = "useragent.json"

var now = time.Now

func fatal(ctx context.Context, message string, err error) int {
	slog.Log(ctx, telemetry.LevelCritical, message, "err", err)
	return trip.ExitFailed
}

func runTrip(ctx context.Context, path string, override bool) int {
	store := settings.NewStore(path)
	if timezone.IsWeekend(now().In(store.Location())) {
		return trip.NotAWeekday.ExitCode()
	}

	cfg, err := store.Load()
	if err != nil {
		return fatal(ctx, "failed to load config", err)
	}

	level, _ := telemetry.ParseLevel(cfg.LogLevel)
	closeLog, err := telemetry.InitSlog(telemetry.LogOptions{
		Level: level,
		File:  store.Resolve(cfg.LogFilepath),
	})
	if err != nil {
		return fatal(ctx, "failed to open log file", err)
	}
	defer closeLog()

	runId, err := random.String(8)
	if err != nil {
		return fatal(ctx, "failed to generate run id", err)
	}
	slog.SetDefault(slog.Default().With("run_id", runId))

	tel, err := telemetry.Setup(ctx, "bikelog", telemetry.Config{Otlp: cfg.Otlp})
	if err != nil {
		return fatal(ctx, "failed to setup telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		telemetry.RecordProcessStats(shutdownCtx)
		err := tel.Shutdown(shutdownCtx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}()

	loc, _ := cfg.Location()
	timezone.Location = loc

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		out, err := restyutil.NewFilesystemOutput(store.Resolve(".dev/resty"))
		if err != nil {
			slog.WarnContext(ctx, "failed to create http dump directory", "err", err)
		} else {
			incentive.SetRestyInstrumentOutput(out)
		}
	}

	agent := chooseUserAgent(ctx, cfg, store)
	slog.InfoContext(ctx, "useragent set", "useragent", agent)

	client, err := incentive.NewClient(incentive.ClientOptions{
		Scheme:     cfg.Scheme(),
		Endpoint:   cfg.Url,
		UserAgent:  agent,
		Timeout:    cfg.Timeout(),
		BrowserTLS: cfg.BrowserTLS,
	})
	if err != nil {
		return fatal(ctx, "failed to create http client", err)
	}

	deps := trip.Dependencies{
		Store: store,
		Probe: wifi.AirportProbe{Path: cfg.Airport()},
		Keychain: keychain.Chain{
			keychain.SecurityCLI{},
			keychain.Env{Variable: PasswordEnv},
		},
		Form:  client,
		Now: func() time.Time {
			return now().In(timezone.Location)
		},
		RunID: runId,
	}
	if cfg.HistoryDB != "" {
		hist, err := history.Open(store.Resolve(cfg.HistoryDB))
		if err != nil {
			slog.WarnContext(ctx, "attempt history disabled", "err", err)
		} else {
			defer hist.Close()
			deps.History = hist
		}
	}

	outcome, err := trip.NewWorkflow(cfg, override, deps).Run(ctx)
	if err != nil {
		slog.Log(ctx, telemetry.LevelCritical, "fatal error, state left unchanged", "outcome", outcome.String(), "err", err)
		slog.InfoContext(ctx, "exiting")
		return trip.ExitFailed
	}
	if outcome != trip.NotAWeekday {
		slog.InfoContext(ctx, "exiting", "outcome", outcome.String())
	}
	return outcome.ExitCode()
}

func chooseUserAgent(ctx context.Context, cfg settings.Settings, store settings.Store) string {
	fallback := cfg.DefaultUserAgent
	if fallback == "" {
		fallback = useragent.Default
	}
	if !cfg.RandomizeUserAgent {
		return fallback
	}

	path := cfg.UserAgentPools
	if path == "" {
		path = defaultPoolsFile
	}
	pools, err := useragent.LoadPools(store.Resolve(path))
	if err != nil {
		slog.WarnContext(ctx, "falling back to default useragent", "err", err)
		return fallback
	}
	agent, err := useragent.Generate(pools, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		slog.WarnContext(ctx, "falling back to default useragent", "err", err)
		return fallback
	}
	return agent
}
