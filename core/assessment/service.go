package assessment

import (
	"context"
	"fmt"

	"github.com/trezcool/academia/core"
)

var (
	// errors
	ErrAAT1NotFound = fmt.Errorf("aat1 %w", core.ErrNotFound)
	ErrAAT2NotFound = fmt.Errorf("aat2 %w", core.ErrNotFound)
)

// Filter narrows listings. An empty FacultyID matches every owner.
type Filter struct {
	FacultyID string
}

type Repository interface {
	CreateAAT1(ctx context.Context, a AAT1) (AAT1, error)
	GetAAT1ByID(ctx context.Context, id string) (AAT1, error)
	// QueryAAT1s returns the matching AAT1s, newest first.
	QueryAAT1s(ctx context.Context, filter Filter) ([]AAT1, error)

	CreateAAT2(ctx context.Context, a AAT2) (AAT2, error)
	GetAAT2ByID(ctx context.Context, id string) (AAT2, error)
	// QueryAAT2s returns the matching AAT2s, newest first.
	QueryAAT2s(ctx context.Context, filter Filter) ([]AAT2, error)
}
