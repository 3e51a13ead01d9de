// Package trip decides whether a bike trip should be logged and logs it.
package trip

import (
	"bikelog/internal/history"
	"bikelog/internal/settings"
	"bikelog/lib/keychain"
	"bikelog/lib/platforms/incentive"
	"bikelog/lib/timezone"
	"bikelog/lib/wifi"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type SettingsWriter interface {
	Save(patch settings.Patch) error
}

type FormClient interface {
	Submit(ctx context.Context, login incentive.Login, trip incentive.Trip) (incentive.Submission, error)
}

type Recorder interface {
	Record(ctx context.Context, attempt history.Attempt) error
}

type Dependencies struct {
	Store    SettingsWriter
	Probe    wifi.Probe
	Keychain keychain.Provider
	Form     FormClient
	// optional
	History Recorder
	// defaults to timezone.Now
	Now   func() time.Time
	RunID string
}

type Workflow struct {
	settings settings.Settings
	override bool
	deps     Dependencies
}

// NewWorkflow creates a workflow for a single run, `override` is the command
// line override and is combined with the one in the settings.
func NewWorkflow(s settings.Settings, override bool, deps Dependencies) Workflow {
	if deps.Now == nil {
		deps.Now = timezone.Now
	}
	return Workflow{
		settings: s,
		override: override,
		deps:     deps,
	}
}

// Run goes through the weekday, cooldown, network and credential checks and
// submits the trip if all of them pass. The settings file is only written
// when the form was actually submitted and answered.
//
// A non-nil error means the run failed in a way that should be reported as
// fatal, the returned Outcome is still the furthest state that was reached.
func (w Workflow) Run(ctx context.Context) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "workflow:Run")
	defer span.End()

	outcome, err := w.run(ctx)

	span.SetAttributes(attribute.String("outcome", outcome.String()))
	outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip workflow failed")
	}
	return outcome, err
}

func (w Workflow) run(ctx context.Context) (Outcome, error) {
	loc, err := w.settings.Location()
	if err != nil {
		return Aborted, err
	}
	now := w.deps.Now().In(loc)

	if timezone.IsWeekend(now) {
		slog.DebugContext(ctx, "weekend, not logging trips", "day", now.Weekday().String())
		return NotAWeekday, nil
	}

	slog.InfoContext(ctx, "initialized", "time", now.Format(time.DateTime))

	override := w.override || w.settings.Override
	if override {
		slog.InfoContext(ctx, "network and time override set")
	}

	last, hasLast := w.settings.LastSuccessTime()
	if hasLast {
		slog.InfoContext(ctx, "last successful trip log", "time", last.In(loc).Format(time.DateTime))
	}

	if !override && hasLast {
		cooldown := w.settings.Cooldown()
		elapsed := now.Sub(last)
		if elapsed < cooldown {
			slog.WarnContext(ctx, "delay period active", "cooldown", cooldown.String())
			slog.InfoContext(ctx, "delay period ends", "remaining", (cooldown - elapsed).Truncate(time.Second).String())
			return Delayed, nil
		}
	}

	identity, err := w.deps.Probe.Current(ctx)
	if err != nil {
		return Aborted, fmt.Errorf("probe network: %w", err)
	}
	ssid := identity.SSID()
	switch {
	case !identity.Connected():
		slog.WarnContext(ctx, "no network connection")
		return NoConnection, nil
	case slices.Contains(w.settings.ValidSSIDs, ssid):
		slog.InfoContext(ctx, "valid network found", "ssid", ssid)
	case override:
		slog.InfoContext(ctx, "network found", "ssid", ssid)
	case ssid == "":
		slog.WarnContext(ctx, "no network connection")
		return NoConnection, nil
	default:
		slog.WarnContext(ctx, "invalid network", "ssid", ssid)
		return DisallowedNetwork, nil
	}

	slog.InfoContext(ctx, "retrieving password", "password_domain", w.settings.PasswordDomain)
	password, err := w.deps.Keychain.Secret(ctx, w.settings.PasswordDomain)
	if err != nil || password == "" {
		slog.ErrorContext(ctx, "unable to retrieve password", "password_domain", w.settings.PasswordDomain, "err", err)
		return CredentialUnavailable, nil
	}

	trip, err := w.settings.Trip()
	if err != nil {
		return Aborted, err
	}

	slog.InfoContext(
		ctx, "posting trip",
		"mileage", trip.Mileage,
		"destination", trip.Destination,
		"othermode", trip.OtherMode,
	)
	login := incentive.Login{Username: w.settings.Username, Password: password}
	sub, err := w.deps.Form.Submit(ctx, login, trip)
	if err != nil {
		w.record(ctx, now, TransportError, ssid, sub, err.Error())
		return TransportError, fmt.Errorf("submit trip: %w", err)
	}

	protocol := strings.ToUpper(w.settings.Scheme())
	slog.InfoContext(ctx, "login status", "protocol", protocol, "status", sub.LoginStatus)
	slog.InfoContext(ctx, "form submit status", "protocol", protocol, "status", sub.SubmitStatus)
	slog.InfoContext(ctx, "dom retrieved", "kb", fmt.Sprintf("%0.2f", float64(len(sub.Body))/1024))

	result := incentive.Classify(sub.Body)
	for _, text := range result.Notifications {
		slog.InfoContext(ctx, "notification", "text", text)
	}
	for _, text := range result.Successes {
		slog.InfoContext(ctx, "success", "text", text)
	}

	outcome := FormRejected
	patch := settings.Patch{Override: false}
	if result.Succeeded() {
		outcome = Succeeded
		patch.LastSuccess = &now
		slog.InfoContext(ctx, "trip logged")
	} else {
		slog.WarnContext(ctx, "trip was not logged", "notifications", len(result.Notifications))
	}

	err = w.deps.Store.Save(patch)
	if err != nil {
		return outcome, fmt.Errorf("save state: %w", err)
	}

	messages := append(slices.Clone(result.Notifications), result.Successes...)
	w.record(ctx, now, outcome, ssid, sub, strings.Join(messages, "; "))

	return outcome, nil
}

func (w Workflow) record(ctx context.Context, now time.Time, outcome Outcome, ssid string, sub incentive.Submission, detail string) {
	if w.deps.History == nil {
		return
	}
	err := w.deps.History.Record(ctx, history.Attempt{
		RunID:        w.deps.RunID,
		Time:         now,
		Outcome:      outcome.String(),
		SSID:         ssid,
		LoginStatus:  sub.LoginStatus,
		SubmitStatus: sub.SubmitStatus,
		Detail:       detail,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record attempt", "err", err)
	}
}
