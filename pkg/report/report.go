// Package report summarizes a user's execution history.
package report

import (
	"math"
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
)

const (
	// VolumePoints is how many recent executions the volume series keeps.
	VolumePoints = 10
	// FrequencyDays is the length of the frequency window, today included.
	FrequencyDays = 14
)

// VolumePoint is the load moved in one execution.
type VolumePoint struct {
	ExecutionID string    `json:"execution_id"`
	TemplateID  string    `json:"template_id"`
	FinishedAt  time.Time `json:"finished_at"`
	Volume      float64   `json:"volume"`
}

// DayCount is the number of executions finished on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary is the reporting view of a history.
type Summary struct {
	TotalExecutions int           `json:"total_executions"`
	Completed       int           `json:"completed"`
	CompletionRate  int           `json:"completion_rate"`
	Volume          []VolumePoint `json:"volume"`
	Frequency       []DayCount    `json:"frequency"`
}

// Summarize builds the summary of records, which must be ordered newest
// first. Days are computed in now's location.
func Summarize(records []domain.ExecutionRecord, now time.Time) Summary {
	s := Summary{
		TotalExecutions: len(records),
		Volume:          []VolumePoint{},
		Frequency:       make([]DayCount, FrequencyDays),
	}

	for _, r := range records {
		if r.Status == domain.ExecutionCompleted {
			s.Completed++
		}
	}
	if s.TotalExecutions > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.TotalExecutions) * 100))
	}

	// Oldest to newest, keeping the last VolumePoints.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		s.Volume = append(s.Volume, VolumePoint{
			ExecutionID: r.ID,
			TemplateID:  r.TemplateID,
			FinishedAt:  r.FinishedAt,
			Volume:      r.Volume(),
		})
	}
	if len(s.Volume) > VolumePoints {
		s.Volume = s.Volume[len(s.Volume)-VolumePoints:]
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	index := make(map[string]int, FrequencyDays)
	for i := 0; i < FrequencyDays; i++ {
		day := today.AddDate(0, 0, i-(FrequencyDays-1)).Format(time.DateOnly)
		s.Frequency[i] = DayCount{Date: day}
		index[day] = i
	}
	for _, r := range records {
		if i, ok := index[r.FinishedAt.In(loc).Format(time.DateOnly)]; ok {
			s.Frequency[i].Count++
		}
	}

	return s
}
