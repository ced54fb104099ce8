package handlers

import (
	"context"
	"time"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
)

type mockNL2SQLService struct {
	askResp      *models.AskResponse
	validateResp *models.SQLValidation
	err          error

	lastRequest models.TranslationRequest
	lastSQL     string
}

var _ services.NL2SQLService = (*mockNL2SQLService)(nil)

func (m *mockNL2SQLService) TranslateAndValidate(_ context.Context, question string) (*models.ValidatedTranslation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.askResp != nil {
		return m.askResp.Translation, nil
	}
	return &models.ValidatedTranslation{Meta: models.TranslationMeta{OriginalQuestion: question}}, nil
}

func (m *mockNL2SQLService) Ask(_ context.Context, req models.TranslationRequest) (*models.AskResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return m.askResp, nil
}

func (m *mockNL2SQLService) ValidateSQL(_ context.Context, query string) (*models.SQLValidation, error) {
	m.lastSQL = query
	if m.err != nil {
		return nil, m.err
	}
	return m.validateResp, nil
}

type mockHistoryService struct {
	entries   []*models.QueryHistoryEntry
	err       error
	lastLimit int
}

var _ services.QueryHistoryService = (*mockHistoryService)(nil)

func (m *mockHistoryService) Record(_ context.Context, entry *models.QueryHistoryEntry) error {
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockHistoryService) ListRecent(_ context.Context, limit int) ([]*models.QueryHistoryEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

func (m *mockHistoryService) PruneOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, m.err
}

type mockConnectionTester struct {
	err error
}

func (m *mockConnectionTester) TestConnection(_ context.Context) error { return m.err }
func (m *mockConnectionTester) Close() error                           { return nil }
