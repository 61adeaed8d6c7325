package remedial

import (
	"context"
	"fmt"

	"github.com/trezcool/academia/core"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = fmt.Errorf("remedial session %w", core.ErrNotFound)

// Filter narrows listings. An empty FacultyID matches every owner.
type Filter struct {
	FacultyID string
}

type Repository interface {
	// CreateSession persists `s` together with its invitee list in a single write.
	CreateSession(ctx context.Context, s Session) (Session, error)
	GetSessionByID(ctx context.Context, id string) (Session, error)
	// QuerySessions returns the matching sessions, newest first.
	QuerySessions(ctx context.Context, filter Filter) ([]Session, error)
}
