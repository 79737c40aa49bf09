package usecase

import (
	"context"

	"asis-server/internal/asis"
	"asis-server/internal/domain"
)

type DocumentService struct {
	docs    DocumentRepository
	history HistoryRepository
}

// NewDocumentService builds the service. history may be nil, in which case
// nothing is recorded.
func NewDocumentService(docs DocumentRepository, history HistoryRepository) *DocumentService {
	return &DocumentService{docs: docs, history: history}
}

// RenderResponse loads the document for requestPath and runs it through the
// parse, transform and render pipeline. Errors are *domain.DocumentError
// wrapping one of the domain error kinds.
func (s *DocumentService) RenderResponse(ctx context.Context, requestPath string) (domain.Rendered, error) {
	doc, err := s.docs.Open(ctx, requestPath)
	if err != nil {
		return domain.Rendered{}, &domain.DocumentError{Path: requestPath, Err: err}
	}
	r, err := asis.Process(doc.Raw)
	if err != nil {
		return domain.Rendered{}, &domain.DocumentError{Path: requestPath, Err: err}
	}
	return r, nil
}

func (s *DocumentService) Record(ctx context.Context, d domain.ServedDocument) error {
	if s.history == nil {
		return nil
	}
	return s.history.AppendServed(ctx, d)
}

func (s *DocumentService) History(ctx context.Context, limit int) ([]domain.ServedDocument, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListServed(ctx, limit)
}

func (s *DocumentService) ClearHistory(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	return s.history.ClearServed(ctx)
}
