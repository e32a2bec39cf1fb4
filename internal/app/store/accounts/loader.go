// internal/app/store/accounts/loader.go
package accountstore

import (
	"context"
	"errors"

	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewLoader returns the auth.UserLoader backed by s. Disabled and deleted
// accounts load as nil so their sessions end on the next request.
func NewLoader(s *Store) auth.UserLoader {
	return func(ctx context.Context, accountID primitive.ObjectID) (*auth.SessionUser, error) {
		a, err := s.GetByID(ctx, accountID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if a.Status != StatusActive {
			return nil, nil
		}

		u := &auth.SessionUser{
			ID:          a.ID.Hex(),
			Username:    a.Username,
			Name:        a.FullName,
			IsSuperuser: a.IsSuperuser,
		}
		if a.IsSuperuser {
			return u, nil
		}
		ap, err := s.GetProfile(ctx, a.ID)
		switch {
		case errors.Is(err, ErrProfileNotFound):
		case err != nil:
			return nil, err
		default:
			u.Profile = &ap
		}
		return u, nil
	}
}
