package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

// userHistory is the on-disk document of one user's history.
type userHistory struct {
	LastCompleted string                   `json:"last_completed,omitempty"`
	Executions    []domain.ExecutionRecord `json:"executions"`
}

// Archive implements ports.ExecutionArchive with one JSON document per user.
// Writes rewrite the whole document, so it suits single-process use.
type Archive struct {
	BasePath string
	mu       sync.Mutex
}

var _ ports.ExecutionArchive = (*Archive)(nil)

// NewArchive creates an archive rooted at basePath.
func NewArchive(basePath string) *Archive {
	if basePath == "" {
		basePath = filepath.Join(".ironlog", "history")
	}
	return &Archive{BasePath: basePath}
}

func (a *Archive) path(userID string) string {
	return filepath.Join(a.BasePath, userID+".json")
}

func (a *Archive) read(userID string) (*userHistory, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.path(userID))
	if os.IsNotExist(err) {
		return &userHistory{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read history file")
	}
	var h userHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, errors.Wrapf(err, "history of %s is corrupted", userID)
	}
	return &h, nil
}

func (a *Archive) write(userID string, h *userHistory) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal history")
	}
	return writeAtomic(a.BasePath, a.path(userID), data)
}

func (a *Archive) update(userID string, fn func(*userHistory)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, err := a.read(userID)
	if err != nil {
		return err
	}
	fn(h)
	return a.write(userID, h)
}

func (a *Archive) AppendExecution(ctx context.Context, record *domain.ExecutionRecord) error {
	return a.update(record.UserID, func(h *userHistory) {
		h.Executions = append(h.Executions, *record)
	})
}

func (a *Archive) ListExecutions(ctx context.Context, userID string) ([]domain.ExecutionRecord, error) {
	a.mu.Lock()
	h, err := a.read(userID)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	records := h.Executions
	if records == nil {
		records = []domain.ExecutionRecord{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})
	return records, nil
}

func (a *Archive) SetLastCompleted(ctx context.Context, userID, templateID string) error {
	return a.update(userID, func(h *userHistory) {
		h.LastCompleted = templateID
	})
}

func (a *Archive) LastCompleted(ctx context.Context, userID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, err := a.read(userID)
	if err != nil {
		return "", err
	}
	return h.LastCompleted, nil
}
