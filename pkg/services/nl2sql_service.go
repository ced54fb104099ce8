package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/audit"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/dialect"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/llm"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	sqlparse "github.com/ekaya-inc/welfare-nl2sql/pkg/sql"
)

// NL2SQLService is the entry point of the translation pipeline: screen the
// question, translate, validate and optionally execute.
type NL2SQLService interface {
	// TranslateAndValidate returns candidate SQL with its safety verdict.
	// A failed translation is not an error: it is reported with Safe=false,
	// an empty SQL and the failure message and suggestions in Meta.
	TranslateAndValidate(ctx context.Context, question string) (*models.ValidatedTranslation, error)

	// Ask translates and, when req.Execute is set and the SQL is safe, runs
	// it. Unsafe SQL is never executed. Executor failures are returned as
	// *apperrors.ExecutorError.
	Ask(ctx context.Context, req models.TranslationRequest) (*models.AskResponse, error)

	// ValidateSQL normalizes caller-supplied SQL and reports its verdict.
	ValidateSQL(ctx context.Context, query string) (*models.SQLValidation, error)
}

// NL2SQLConfig holds pipeline settings.
type NL2SQLConfig struct {
	// MaxRows caps the rows returned by an executed query.
	MaxRows int
}

type nl2sqlService struct {
	translator Translator
	normalizer *dialect.Normalizer
	validator  *sqlparse.SafetyValidator
	executor   datasource.QueryExecutor
	history    QueryHistoryService
	formatter  *ResultFormatter
	auditor    *audit.SecurityAuditor
	cfg        NL2SQLConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewNL2SQLService creates the pipeline. executor and history may be nil:
// without an executor Ask only translates, without history nothing is recorded.
func NewNL2SQLService(
	translator Translator,
	normalizer *dialect.Normalizer,
	executor datasource.QueryExecutor,
	history QueryHistoryService,
	cfg NL2SQLConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) NL2SQLService {
	if cfg.MaxRows <= 0 || cfg.MaxRows > datasource.MaxQueryLimit {
		cfg.MaxRows = datasource.MaxQueryLimit
	}
	return &nl2sqlService{
		translator: translator,
		normalizer: normalizer,
		validator:  sqlparse.NewSafetyValidator(),
		executor:   executor,
		history:    history,
		formatter:  NewResultFormatter(),
		auditor:    audit.NewSecurityAuditor(logger),
		cfg:        cfg,
		metrics:    m,
		logger:     logger.Named("nl2sql-service"),
	}
}

var _ NL2SQLService = (*nl2sqlService)(nil)

func (s *nl2sqlService) TranslateAndValidate(ctx context.Context, question string) (*models.ValidatedTranslation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrInvalidInput)
	}

	start := time.Now()
	requestID := llm.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = llm.WithRequestID(ctx, requestID)
	}

	vt := &models.ValidatedTranslation{
		Meta: models.TranslationMeta{
			RequestID:        requestID,
			OriginalQuestion: question,
		},
	}

	screen := sqlparse.ScreenQuestion(question)
	vt.Meta.InjectionFingerprint = screen.Fingerprint
	if screen.Rejected() {
		vt.Reason = screen.Verdict.Reason
		vt.Meta.Message = screen.Verdict.Reason.Message()
		vt.Meta.DurationMs = time.Since(start).Milliseconds()
		s.metrics.ObserveVerdict(string(vt.Reason))
		s.auditor.LogQuestionRejected(requestID, audit.QuestionDetails{
			Question:    question,
			Reason:      vt.Reason,
			Fingerprint: screen.Fingerprint,
		})
		return vt, nil
	}
	if screen.Fingerprint != "" {
		s.logger.Info("Question resembles SQL injection",
			zap.String("request_id", requestID),
			zap.String("fingerprint", screen.Fingerprint))
	}

	tr, err := s.translator.Translate(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("translate question: %w", err)
	}
	vt.Meta.ProcessedQuestion = tr.ProcessedQuestion

	if !tr.Result.Succeeded() {
		vt.Meta.Message = tr.Result.Failure.Message
		vt.Meta.Suggestions = tr.Result.Failure.Suggestions
		vt.Meta.DurationMs = time.Since(start).Milliseconds()
		return vt, nil
	}

	success := tr.Result.Success
	verdict := s.validator.Validate(success.SQL)
	vt.SQL = success.SQL
	vt.Safe = verdict.Safe
	vt.Reason = verdict.Reason
	vt.Meta.Method = success.Method
	vt.Meta.Confidence = success.Confidence
	vt.Meta.ChartType = success.ChartType
	if !verdict.Safe {
		vt.Meta.Message = verdict.Reason.Message()
		s.auditor.LogUnsafeSQL(requestID, audit.SQLDetails{
			SQL:    success.SQL,
			Method: success.Method,
			Reason: verdict.Reason,
		})
	}
	s.metrics.ObserveVerdict(string(verdict.Reason))
	vt.Meta.DurationMs = time.Since(start).Milliseconds()

	return vt, nil
}

func (s *nl2sqlService) Ask(ctx context.Context, req models.TranslationRequest) (*models.AskResponse, error) {
	start := time.Now()

	vt, err := s.TranslateAndValidate(ctx, req.Question)
	if err != nil {
		return nil, err
	}
	resp := &models.AskResponse{Translation: vt}

	if !req.Execute || !vt.Safe {
		s.record(ctx, vt, nil, nil, start)
		return resp, nil
	}
	if s.executor == nil {
		return nil, apperrors.ErrExecutorUnavailable
	}

	result, err := s.executor.Query(ctx, vt.SQL, s.cfg.MaxRows)
	if err != nil {
		s.metrics.IncExecutorError()
		s.logger.Error("Query execution failed",
			zap.String("request_id", vt.Meta.RequestID),
			zap.String("sql", logging.SanitizeQuery(vt.SQL)),
			zap.String("error", logging.SanitizeError(err)))
		s.record(ctx, vt, nil, err, start)
		return nil, &apperrors.ExecutorError{Err: err}
	}

	resp.Result = s.formatter.Format(result, vt)
	rowCount := resp.Result.RowCount
	s.auditor.LogQueryExecution(vt.Meta.RequestID, audit.SQLDetails{
		SQL:      vt.SQL,
		Method:   vt.Meta.Method,
		RowCount: &rowCount,
	})
	s.record(ctx, vt, &rowCount, nil, start)

	return resp, nil
}

func (s *nl2sqlService) ValidateSQL(ctx context.Context, query string) (*models.SQLValidation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: sql is required", apperrors.ErrInvalidInput)
	}

	normalized := s.normalizer.Normalize(query)
	verdict := s.validator.Validate(normalized)
	s.metrics.ObserveVerdict(string(verdict.Reason))

	return &models.SQLValidation{
		OriginalSQL:   query,
		NormalizedSQL: normalized,
		Safe:          verdict.Safe,
		Reason:        verdict.Reason,
		Message:       verdict.Reason.Message(),
	}, nil
}

// record writes the outcome to history. Failures are logged and never fail
// the request.
func (s *nl2sqlService) record(ctx context.Context, vt *models.ValidatedTranslation, rowCount *int, execErr error, start time.Time) {
	if s.history == nil {
		return
	}

	entry := &models.QueryHistoryEntry{
		RequestID:         vt.Meta.RequestID,
		Question:          vt.Meta.OriginalQuestion,
		ProcessedQuestion: vt.Meta.ProcessedQuestion,
		SQL:               vt.SQL,
		Method:            vt.Meta.Method,
		Confidence:        vt.Meta.Confidence,
		Safe:              vt.Safe,
		UnsafeReason:      vt.Reason,
		RowCount:          rowCount,
		DurationMs:        time.Since(start).Milliseconds(),
	}
	if execErr != nil {
		msg := logging.SanitizeError(execErr)
		entry.ErrorMessage = &msg
	} else if vt.SQL == "" && vt.Meta.Message != "" {
		msg := vt.Meta.Message
		entry.ErrorMessage = &msg
	}

	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("Failed to record question history",
			zap.String("request_id", vt.Meta.RequestID),
			zap.Error(err))
	}
}
