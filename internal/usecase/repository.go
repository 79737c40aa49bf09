package usecase

import (
	"context"

	"asis-server/internal/domain"
)

// DocumentRepository loads the raw as-is document for a request path. It
// returns domain.ErrNotFound when there is none.
type DocumentRepository interface {
	Open(ctx context.Context, requestPath string) (domain.Document, error)
}

// Optional repository keeping a history of served requests.
type HistoryRepository interface {
	AppendServed(ctx context.Context, d domain.ServedDocument) error
	ListServed(ctx context.Context, limit int) ([]domain.ServedDocument, error)
	ClearServed(ctx context.Context) error
}
