package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/dialect"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/llm"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/metrics"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/prompts"
)

const (
	DefaultTranslationTimeout = 20 * time.Second
	DefaultTemperature        = 0.1
)

// TranslatorConfig controls the model call.
type TranslatorConfig struct {
	Timeout     time.Duration
	Temperature float64
}

// Translation is the translator output together with the question text that
// was sent to the model.
type Translation struct {
	Result            models.TranslationResult
	ProcessedQuestion string
	// ModelError is the reason the model path was not used, empty when the
	// model produced the SQL.
	ModelError string
}

// Translator turns a natural-language question into candidate SQL. The SQL
// of a successful translation has been normalized but not validated.
type Translator interface {
	Translate(ctx context.Context, question string) (*Translation, error)
}

type translator struct {
	llmClient    llm.LLMClient
	breaker      *llm.CircuitBreaker
	normalizer   *dialect.Normalizer
	preprocessor *QuestionPreprocessor
	cache        TranslationCache
	grounding    string
	cfg          TranslatorConfig
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// TranslatorDeps are the collaborators of a translator. Catalog and
// Normalizer are required. A nil LLM sends every question to the pattern
// fallback; the other fields are optional.
type TranslatorDeps struct {
	Catalog      *catalog.Catalog
	Normalizer   *dialect.Normalizer
	LLM          llm.LLMClient
	Breaker      *llm.CircuitBreaker
	Preprocessor *QuestionPreprocessor
	Cache        TranslationCache
	Metrics      *metrics.Metrics
}

func NewTranslator(deps TranslatorDeps, cfg TranslatorConfig, logger *zap.Logger) Translator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTranslationTimeout
	}
	if deps.Preprocessor == nil {
		deps.Preprocessor = NewQuestionPreprocessor(nil)
	}
	if deps.Breaker == nil {
		deps.Breaker = llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	}
	return &translator{
		llmClient:    deps.LLM,
		breaker:      deps.Breaker,
		normalizer:   deps.Normalizer,
		preprocessor: deps.Preprocessor,
		cache:        deps.Cache,
		grounding:    deps.Catalog.GroundingText(),
		cfg:          cfg,
		metrics:      deps.Metrics,
		logger:       logger.Named("translator"),
	}
}

var _ Translator = (*translator)(nil)

func (t *translator) Translate(ctx context.Context, question string) (*Translation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed := t.preprocessor.Process(question)
	out := &Translation{ProcessedQuestion: processed}

	sql, err := t.fromModel(ctx, processed)
	if err == nil {
		normalized := t.normalizer.Normalize(sql)
		out.Result = models.NewTranslationSuccess(normalized, models.MethodModel, SuggestChartType(normalized))
		t.metrics.ObserveTranslation(string(models.MethodModel), metrics.OutcomeSuccess)
		return out, nil
	}
	out.ModelError = err.Error()

	// Fallback templates are matched on the question as asked; the
	// preprocessor's expansions are for the model.
	if match, ok := MatchFallback(question); ok {
		normalized := t.normalizer.Normalize(match.SQL)
		out.Result = models.NewTranslationSuccess(normalized, models.MethodPatternFallback, match.ChartType)
		t.metrics.ObserveTranslation(string(models.MethodPatternFallback), metrics.OutcomeSuccess)
		t.logger.Debug("Translated with pattern fallback",
			zap.String("pattern", match.Name),
			zap.String("model_error", out.ModelError))
		return out, nil
	}

	t.logger.Info("No translation for question",
		zap.String("question", logging.SanitizeQuery(question)),
		zap.String("model_error", out.ModelError))
	out.Result = models.NewTranslationFailure(apperrors.ErrTranslationUnavailable.Error(), Suggestions(question))
	t.metrics.ObserveTranslation("none", metrics.OutcomeFailure)
	return out, nil
}

var errNoModel = errors.New("language model not configured")

// fromModel makes the single model call for a translation and returns the
// extracted SQL. The call is never retried.
func (t *translator) fromModel(ctx context.Context, processed string) (string, error) {
	if t.llmClient == nil {
		return "", errNoModel
	}
	if t.cache != nil {
		if sql, ok := t.cache.Get(ctx, processed); ok {
			t.logger.Debug("Translation cache hit", zap.String("request_id", llm.RequestIDFromContext(ctx)))
			return sql, nil
		}
	}
	if ok, err := t.breaker.Allow(); !ok {
		t.metrics.ObserveLLMCall(t.llmClient.GetProvider(), metrics.OutcomeSkipped, 0)
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	prompt := prompts.BuildNL2SQLPrompt(t.grounding, processed)
	start := time.Now()
	resp, err := t.llmClient.GenerateResponse(ctx, prompt, prompts.NL2SQLSystemMessage, t.cfg.Temperature)
	elapsed := time.Since(start)
	provider := t.llmClient.GetProvider()

	if err != nil {
		t.breaker.RecordFailure()
		errType := llm.GetErrorType(err)
		t.metrics.ObserveLLMCall(provider, metrics.OutcomeFailure, elapsed)
		t.metrics.ObserveLLMFailure(string(errType))
		t.logger.Warn("Model call failed",
			zap.String("request_id", llm.RequestIDFromContext(ctx)),
			zap.String("error_type", string(errType)),
			zap.Duration("elapsed", elapsed),
			zap.String("error", logging.SanitizeError(err)))
		return "", err
	}

	// The provider answered, so the circuit stays closed even when the answer
	// is unusable.
	t.breaker.RecordSuccess()
	t.metrics.ObserveLLMCall(provider, metrics.OutcomeSuccess, elapsed)

	sql, err := llm.ExtractSQL(resp.Content)
	if err != nil {
		t.metrics.ObserveLLMFailure("not_sql")
		t.logger.Warn("Model response is not SQL",
			zap.String("request_id", llm.RequestIDFromContext(ctx)),
			zap.String("response", logging.SanitizeQuery(resp.Content)))
		return "", fmt.Errorf("model response: %w", err)
	}
	if t.cache != nil {
		t.cache.Set(ctx, processed, sql)
	}

	t.logger.Debug("Model translation",
		zap.String("request_id", llm.RequestIDFromContext(ctx)),
		zap.Int("total_tokens", resp.TotalTokens),
		zap.Duration("elapsed", elapsed))
	return sql, nil
}
