package session

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

// SeedFunc builds a fresh session when nothing can be resumed.
type SeedFunc func(ctx context.Context) (*domain.ActiveSession, error)

// Resolve returns the stored session of userID if it belongs to templateID.
// Otherwise it seeds a new one and persists it, replacing whatever session
// the user had for another template.
//
// resumed reports which path was taken. A failure to save the fresh session
// is returned together with the session, which is still usable.
// Resolve does not lock; call it inside Manager.WithLock.
func Resolve(ctx context.Context, store ports.SessionStore, userID, templateID string, seed SeedFunc) (session *domain.ActiveSession, resumed bool, err error) {
	stored, err := store.Load(ctx, userID)
	switch {
	case err == nil:
		if stored.TemplateID == templateID {
			return stored, true, nil
		}
	case errors.Is(err, domain.ErrSessionNotFound):
	default:
		return nil, false, errors.Wrap(domain.Unavailable(err), "failed to check session existence")
	}

	session, err = seed(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := store.Save(ctx, userID, session); err != nil {
		return session, false, errors.Wrap(domain.Unavailable(err), "failed to initialize session")
	}
	return session, false, nil
}
