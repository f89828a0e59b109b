package runner

import (
	"strconv"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
)

// ErrUnknownCommand is returned for console lines that match no command.
var ErrUnknownCommand = errors.New("unknown command")

// CommandKind names a console command.
type CommandKind string

const (
	CmdToggle  CommandKind = "toggle"
	CmdValue   CommandKind = "value"
	CmdAddSet  CommandKind = "add"
	CmdRemove  CommandKind = "rm"
	CmdFocus   CommandKind = "focus"
	CmdBulk    CommandKind = "bulk"
	CmdTimer   CommandKind = "timer"
	CmdStop    CommandKind = "timer-stop"
	CmdEnd     CommandKind = "end"
	CmdAbandon CommandKind = "abandon"
	CmdShow    CommandKind = "show"
	CmdHelp    CommandKind = "help"
	CmdQuit    CommandKind = "quit"
)

// Command is a parsed console line. Slot and Set are zero-based; the
// console reads them one-based.
type Command struct {
	Kind       CommandKind
	Slot       int
	Set        int
	Slotless   bool
	ExerciseID string
	Field      domain.Field
	Value      float64
	Weight     *float64
	Reps       *float64
	Seconds    int
}

// Help is the console command reference.
const Help = `Commands (slots and sets count from 1):
  t <slot> <set>                    toggle a set
  w <slot> <set> <kg> [exercise]    set weight
  r <slot> <set> <reps> [exercise]  set reps
  add <slot> / rm <slot>            add or remove the last set
  f [slot]                          expand or collapse a slot
  bulk <slot> [exercise] w=<kg> r=<reps>
  timer <seconds> / timer stop
  show, end, abandon, help, quit`

// ParseCommand parses one console line.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.Wrap(ErrUnknownCommand, "empty line")
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "t", "toggle":
		slot, set, err := slotAndSet(args)
		return Command{Kind: CmdToggle, Slot: slot, Set: set}, err

	case "w", "weight", "r", "reps":
		if len(args) < 3 || len(args) > 4 {
			return Command{}, errors.Newf("usage: %s <slot> <set> <value> [exercise]", name)
		}
		slot, set, err := slotAndSet(args[:2])
		if err != nil {
			return Command{}, err
		}
		value, err := number(args[2])
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Kind: CmdValue, Slot: slot, Set: set, Value: value, Field: domain.FieldWeight}
		if name == "r" || name == "reps" {
			cmd.Field = domain.FieldReps
		}
		if len(args) == 4 {
			cmd.ExerciseID = args[3]
		}
		return cmd, nil

	case "add", "rm":
		if len(args) != 1 {
			return Command{}, errors.Newf("usage: %s <slot>", name)
		}
		slot, err := index(args[0])
		kind := CmdAddSet
		if name == "rm" {
			kind = CmdRemove
		}
		return Command{Kind: kind, Slot: slot}, err

	case "f", "focus":
		if len(args) == 0 {
			return Command{Kind: CmdFocus, Slotless: true}, nil
		}
		slot, err := index(args[0])
		return Command{Kind: CmdFocus, Slot: slot}, err

	case "bulk":
		return parseBulk(args)

	case "timer":
		if len(args) != 1 {
			return Command{}, errors.New("usage: timer <seconds> | timer stop")
		}
		if args[0] == "stop" {
			return Command{Kind: CmdStop}, nil
		}
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs < 0 {
			return Command{}, errors.Newf("invalid seconds %q", args[0])
		}
		return Command{Kind: CmdTimer, Seconds: secs}, nil

	case "end", "finish":
		return Command{Kind: CmdEnd}, nil
	case "abandon":
		return Command{Kind: CmdAbandon}, nil
	case "show", "s":
		return Command{Kind: CmdShow}, nil
	case "help", "h", "?":
		return Command{Kind: CmdHelp}, nil
	case "quit", "exit", "q":
		return Command{Kind: CmdQuit}, nil
	}
	return Command{}, errors.Wrapf(ErrUnknownCommand, "%q", name)
}

func parseBulk(args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, errors.New("usage: bulk <slot> [exercise] w=<kg> r=<reps>")
	}
	slot, err := index(args[0])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Kind: CmdBulk, Slot: slot}
	for _, arg := range args[1:] {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			cmd.ExerciseID = arg
			continue
		}
		v, err := number(val)
		if err != nil {
			return Command{}, err
		}
		switch key {
		case "w", "weight":
			cmd.Weight = &v
		case "r", "reps":
			cmd.Reps = &v
		default:
			return Command{}, errors.Newf("unknown bulk field %q", key)
		}
	}
	if cmd.Weight == nil && cmd.Reps == nil {
		return Command{}, errors.New("bulk needs w=<kg> or r=<reps>")
	}
	return cmd, nil
}

func slotAndSet(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("expected <slot> <set>")
	}
	slot, err := index(args[0])
	if err != nil {
		return 0, 0, err
	}
	set, err := index(args[1])
	return slot, set, err
}

// index converts a one-based console number to a zero-based index.
func index(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.Newf("invalid position %q", s)
	}
	return n - 1, nil
}

func number(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v < 0 {
		return 0, errors.Newf("invalid value %q", s)
	}
	return v, nil
}
