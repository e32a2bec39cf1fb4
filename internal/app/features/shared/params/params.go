// Package params parses identifiers from URLs and request bodies.
package params

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadID is returned for a malformed ObjectID.
var ErrBadID = errors.New("invalid id")

// ObjectID reads the chi URL parameter name as an ObjectID.
func ObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, ErrBadID
	}
	return id, nil
}

// OptionalID parses an optional hex ID. Blank input yields nil.
func OptionalID(s string) (*primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, ErrBadID
	}
	return &id, nil
}

// IDs parses a list of hex IDs, rejecting the whole list on the first bad one.
func IDs(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, ErrBadID
		}
		out = append(out, id)
	}
	return out, nil
}
