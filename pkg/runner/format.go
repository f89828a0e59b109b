package runner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
)

// FormatFrame renders a frame as markdown. Slots and sets are numbered from 1,
// matching the console commands.
func FormatFrame(f Frame) string {
	var b strings.Builder
	if f.Record != nil {
		writeRecord(&b, f.Record, f.Names)
	} else if f.Session != nil {
		writeSession(&b, f)
	}
	if f.Message != "" {
		fmt.Fprintf(&b, "\n> %s\n", f.Message)
	}
	return b.String()
}

func writeSession(b *strings.Builder, f Frame) {
	s := f.Session
	fmt.Fprintf(b, "# %s\n\n", s.TemplateID)
	if f.Timer.Active {
		fmt.Fprintf(b, "_Rest: %ds of %ds_\n\n", f.Timer.Remaining, f.Timer.Duration)
	}

	for _, slot := range slots(s) {
		keys := slotKeys(s, slot)
		done := true
		for _, k := range keys {
			done = done && s.ExecutionData[k].Completed
		}
		mark := " "
		if done {
			mark = "x"
		}
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = name(f.Names, k.ExerciseID)
		}
		fmt.Fprintf(b, "## %d. [%s] %s\n", slot+1, mark, strings.Join(names, " + "))
		if !f.ExpandAll && !s.IsFocused(slot) {
			b.WriteString("\n")
			continue
		}

		b.WriteString("\n| Set | Exercise | kg | Reps | Done |\n|---|---|---|---|---|\n")
		for _, k := range keys {
			for i, set := range s.ExecutionData[k].Sets {
				check := ""
				if set.Completed {
					check = "x"
				}
				fmt.Fprintf(b, "| %d | %s | %s | %s | %s |\n",
					i+1, name(f.Names, k.ExerciseID), num(set.Weight), num(set.Reps), check)
			}
		}
		b.WriteString("\n")
	}
}

func writeRecord(b *strings.Builder, r *domain.ExecutionRecord, names map[string]string) {
	fmt.Fprintf(b, "# Workout %s (%s)\n\n", r.TemplateID, r.Status)
	for _, ex := range r.ExecutedExercises {
		fmt.Fprintf(b, "- %s: %d/%d sets\n", name(names, ex.ExerciseID), ex.CompletedSets(), len(ex.Sets))
	}
	fmt.Fprintf(b, "\nVolume: %s kg\n", num(r.Volume()))
}

func slots(s *domain.ActiveSession) []int {
	seen := map[int]bool{}
	var out []int
	for _, k := range s.ExecutionData.Keys() {
		if !seen[k.Slot] {
			seen[k.Slot] = true
			out = append(out, k.Slot)
		}
	}
	sort.Ints(out)
	return out
}

func slotKeys(s *domain.ActiveSession, slot int) []domain.SlotKey {
	var keys []domain.SlotKey
	for _, k := range s.ExecutionData.Keys() {
		if k.Slot == slot {
			keys = append(keys, k)
		}
	}
	return keys
}

func name(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
