package runner

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/ironlog/internal/logging"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/ironlog/pkg/timer"
	"github.com/cockroachdb/errors"
)

// Engine is the part of *ironlog.Engine the console drives.
type Engine interface {
	StartSession(ctx context.Context, userID, templateID string) (*domain.ActiveSession, error)
	ActiveSession(ctx context.Context, userID string) (*domain.ActiveSession, error)
	ToggleSetCompletion(ctx context.Context, userID string, slot, set int) (*domain.ActiveSession, error)
	SetSetValue(ctx context.Context, userID string, slot int, exerciseID string, set int, field domain.Field, value float64) (*domain.ActiveSession, error)
	AddSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	RemoveSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	SetFocus(ctx context.Context, userID string, slot *int) (*domain.ActiveSession, error)
	ApplyBulkToExercise(ctx context.Context, userID string, slot int, exerciseID string, weight, reps *float64) (*domain.ActiveSession, error)
	EndSession(ctx context.Context, userID string, confirmed bool) (*domain.ExecutionRecord, error)
	AbandonSession(ctx context.Context, userID string) error
	StartTimer(userID string, seconds int)
	StopTimer(userID string)
	Timer(userID string) timer.State
	Catalog() ports.ExerciseCatalog
}

// Outcome tells the caller how the console loop ended.
type Outcome string

const (
	// OutcomeEnded means the workout was finalized into a record.
	OutcomeEnded Outcome = "ended"
	// OutcomeAbandoned means the session was discarded.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeSuspended means the user left; the session stays saved for resume.
	OutcomeSuspended Outcome = "suspended"
)

// Runner drives one user's workout from an IOHandler.
type Runner struct {
	Engine     Engine
	Handler    IOHandler
	Logger     *slog.Logger
	UserID     string
	TemplateID string
	Renderer   ContentRenderer

	names map[string]string
}

// NewRunner creates a runner for userID. Without WithTemplate it resumes the
// user's active session.
func NewRunner(engine Engine, userID string, opts ...Option) *Runner {
	r := &Runner{
		Engine: engine,
		UserID: userID,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil, WithTextHandlerRenderer(r.Renderer))
	}
	return r
}

// Run executes the console loop until the workout ends, is abandoned, the
// input is exhausted or ctx is cancelled. Leaving early keeps the session saved.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	signals := NewSignalManager(ctx)
	defer signals.Stop()
	ctx = signals.Context()

	session, err := r.open(ctx)
	if err != nil {
		return "", err
	}
	r.loadNames(ctx, session)
	if err := r.show(ctx, session, ""); err != nil {
		return "", err
	}

	for {
		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.Logger.Info("Console closed, session kept", "user_id", r.UserID)
				return OutcomeSuspended, nil
			}
			return "", errors.Wrap(err, "failed to read input")
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			_ = r.Handler.Notify(ctx, err.Error())
			continue
		}
		r.Logger.Debug("Console command", "kind", cmd.Kind, "slot", cmd.Slot, "set", cmd.Set)

		outcome, done, err := r.execute(ctx, cmd)
		if err != nil {
			if errors.Is(err, domain.ErrStorageUnavailable) || errors.Is(err, domain.ErrNoActiveSession) {
				r.Logger.Warn("Command failed", "kind", cmd.Kind, "err", err)
			}
			_ = r.Handler.Notify(ctx, describe(err))
			continue
		}
		if done {
			return outcome, nil
		}
	}
}

func (r *Runner) open(ctx context.Context) (*domain.ActiveSession, error) {
	if r.TemplateID != "" {
		return r.Engine.StartSession(ctx, r.UserID, r.TemplateID)
	}
	return r.Engine.ActiveSession(ctx, r.UserID)
}

func (r *Runner) execute(ctx context.Context, cmd Command) (Outcome, bool, error) {
	var (
		session *domain.ActiveSession
		err     error
	)
	switch cmd.Kind {
	case CmdHelp:
		return "", false, r.Handler.Notify(ctx, Help)
	case CmdQuit:
		return OutcomeSuspended, true, nil
	case CmdShow:
		session, err = r.Engine.ActiveSession(ctx, r.UserID)
	case CmdToggle:
		session, err = r.Engine.ToggleSetCompletion(ctx, r.UserID, cmd.Slot, cmd.Set)
	case CmdValue:
		var id string
		if id, err = r.exercise(ctx, cmd); err == nil {
			session, err = r.Engine.SetSetValue(ctx, r.UserID, cmd.Slot, id, cmd.Set, cmd.Field, cmd.Value)
		}
	case CmdAddSet:
		session, err = r.Engine.AddSet(ctx, r.UserID, cmd.Slot)
	case CmdRemove:
		session, err = r.Engine.RemoveSet(ctx, r.UserID, cmd.Slot)
	case CmdFocus:
		var slot *int
		if !cmd.Slotless {
			slot = domain.SlotRef(cmd.Slot)
		}
		session, err = r.Engine.SetFocus(ctx, r.UserID, slot)
	case CmdBulk:
		var id string
		if id, err = r.exercise(ctx, cmd); err == nil {
			session, err = r.Engine.ApplyBulkToExercise(ctx, r.UserID, cmd.Slot, id, cmd.Weight, cmd.Reps)
		}
	case CmdTimer:
		r.Engine.StartTimer(r.UserID, cmd.Seconds)
		session, err = r.Engine.ActiveSession(ctx, r.UserID)
	case CmdStop:
		r.Engine.StopTimer(r.UserID)
		session, err = r.Engine.ActiveSession(ctx, r.UserID)
	case CmdEnd:
		return r.end(ctx)
	case CmdAbandon:
		if err := r.Engine.AbandonSession(ctx, r.UserID); err != nil {
			return "", false, err
		}
		return OutcomeAbandoned, true, r.Handler.Notify(ctx, "Workout abandoned.")
	default:
		return "", false, errors.Wrapf(ErrUnknownCommand, "%q", cmd.Kind)
	}
	if err != nil {
		return "", false, err
	}
	return "", false, r.show(ctx, session, "")
}

// end finalizes the workout, asking before it records unfinished sets.
func (r *Runner) end(ctx context.Context) (Outcome, bool, error) {
	rec, err := r.Engine.EndSession(ctx, r.UserID, false)
	if errors.Is(err, domain.ErrConfirmationRequired) {
		if nerr := r.Handler.Notify(ctx, "Some sets are not done. Finish anyway? [y/N]"); nerr != nil {
			return "", false, nerr
		}
		answer, ierr := r.Handler.Input(ctx)
		if ierr != nil {
			return "", false, ierr
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return "", false, r.Handler.Notify(ctx, "Workout continues.")
		}
		rec, err = r.Engine.EndSession(ctx, r.UserID, true)
	}
	if err != nil {
		return "", false, err
	}
	r.Logger.Info("Workout recorded", "user_id", r.UserID, "record_id", rec.ID, "status", rec.Status)
	return OutcomeEnded, true, r.Handler.Show(ctx, Frame{Record: rec, Names: r.names, Message: "Workout saved."})
}

// exercise resolves the target exercise of a per-exercise command. A slot
// holding a single exercise does not need it spelled out.
func (r *Runner) exercise(ctx context.Context, cmd Command) (string, error) {
	if cmd.ExerciseID != "" {
		return cmd.ExerciseID, nil
	}
	s, err := r.Engine.ActiveSession(ctx, r.UserID)
	if err != nil {
		return "", err
	}
	keys := slotKeys(s, cmd.Slot)
	switch len(keys) {
	case 0:
		return "", errors.Newf("slot %d does not exist", cmd.Slot+1)
	case 1:
		return keys[0].ExerciseID, nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.ExerciseID
	}
	return "", errors.WithHint(
		errors.Newf("slot %d is combined, name the exercise", cmd.Slot+1),
		"one of: "+strings.Join(ids, ", "))
}

func (r *Runner) show(ctx context.Context, s *domain.ActiveSession, msg string) error {
	return r.Handler.Show(ctx, Frame{
		Session: s,
		Timer:   r.Engine.Timer(r.UserID),
		Message: msg,
		Names:   r.names,
	})
}

func (r *Runner) loadNames(ctx context.Context, s *domain.ActiveSession) {
	r.names = make(map[string]string)
	for _, k := range s.ExecutionData.Keys() {
		if _, ok := r.names[k.ExerciseID]; ok {
			continue
		}
		ex, err := r.Engine.Catalog().GetExercise(ctx, r.UserID, k.ExerciseID)
		if err != nil {
			r.Logger.Debug("Exercise name unavailable", "exercise_id", k.ExerciseID, "err", err)
			continue
		}
		r.names[k.ExerciseID] = ex.Name
	}
}

func describe(err error) string {
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += " (" + strings.Join(hints, "; ") + ")"
	}
	return msg
}
