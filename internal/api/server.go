// Package api serves the translation HTTP API.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/seqgen/internal/logger"
	"github.com/samcharles93/seqgen/internal/logits"
	"github.com/samcharles93/seqgen/internal/translate"
	"github.com/samcharles93/seqgen/internal/version"
)

const (
	// maxInputs bounds the number of sentences in one request.
	maxInputs = 256
	// maxK and maxBeamSize bound the per-request search size.
	maxK        = 100
	maxBeamSize = 1000
)

// Translator is the part of translate.Service the server needs.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, opts translate.Options) ([]*translate.Result, error)
	PoolSize() int
}

type Server struct {
	store      *TranslationStore
	translator Translator
	log        logger.Logger
	clock      func() time.Time
}

func NewServer(store *TranslationStore, translator Translator, log logger.Logger) *Server {
	if store == nil {
		store = NewTranslationStore()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store:      store,
		translator: translator,
		log:        log,
		clock:      time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)

	e.POST("/v1/translations", s.handleCreateTranslation)
	e.GET("/v1/translations/:id", s.handleGetTranslation)
	e.DELETE("/v1/translations/:id", s.handleDeleteTranslation)
}

func (s *Server) handleHealth(c *echo.Context) error {
	pool := 0
	if s.translator != nil {
		pool = s.translator.PoolSize()
	}
	return c.JSON(http.StatusOK, HealthResp{
		Status:  "ok",
		Version: version.String(),
		Pool:    pool,
	})
}

func (s *Server) handleCreateTranslation(c *echo.Context) error {
	if s.translator == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translation service not configured", "")
	}
	req, err := decodeJSON[TranslationRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	texts, err := normalizeInput(req.Input)
	if err != nil {
		return writeTranslateError(c, err)
	}
	opts, err := requestOptions(req)
	if err != nil {
		return writeTranslateError(c, err)
	}

	results, err := s.translator.TranslateBatch(c.Request().Context(), texts, opts)
	if err != nil {
		s.log.Warn("translation request failed", "inputs", len(texts), "error", err)
		return writeTranslateError(c, err)
	}

	tr := Translation{
		ID:        newTranslationID(),
		Object:    "translation",
		CreatedAt: s.clock().Unix(),
		Results:   results,
	}
	for _, r := range results {
		if r.Partial {
			tr.Partial = true
		}
	}
	s.store.Save(tr)
	s.log.Info("translation created", "id", tr.ID, "inputs", len(texts), "partial", tr.Partial)
	return c.JSON(http.StatusOK, tr)
}

func (s *Server) handleGetTranslation(c *echo.Context) error {
	tr, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "translation not found")
	}
	return c.JSON(http.StatusOK, tr)
}

func (s *Server) handleDeleteTranslation(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "translation not found")
	}
	return c.JSON(http.StatusOK, DeleteTranslationResp{
		ID:      id,
		Object:  "translation",
		Deleted: true,
	})
}

func normalizeInput(input any) ([]string, error) {
	var texts []string
	switch v := input.(type) {
	case nil:
		return nil, newInvalidRequest("input is required")
	case string:
		texts = []string{v}
	case []any:
		texts = make([]string, 0, len(v))
		for i, raw := range v {
			str, ok := raw.(string)
			if !ok {
				return nil, newInvalidRequest(fmt.Sprintf("input[%d]: expected string", i))
			}
			texts = append(texts, str)
		}
	default:
		return nil, newInvalidRequest("input: expected string or array of strings")
	}
	if len(texts) == 0 {
		return nil, newInvalidRequest("input must not be empty")
	}
	if len(texts) > maxInputs {
		return nil, newInvalidRequest(fmt.Sprintf("input: at most %d sentences per request", maxInputs))
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, newInvalidRequest(fmt.Sprintf("input[%d]: empty sentence", i))
		}
	}
	return texts, nil
}

func requestOptions(req TranslationRequest) (translate.Options, error) {
	var opts translate.Options
	if req.K != nil {
		if *req.K > maxK {
			return opts, newInvalidRequest(fmt.Sprintf("k: at most %d, got %d", maxK, *req.K))
		}
		opts.K = *req.K
	}
	if req.BeamSize != nil {
		if *req.BeamSize > maxBeamSize {
			return opts, newInvalidRequest(fmt.Sprintf("beam_size: at most %d, got %d", maxBeamSize, *req.BeamSize))
		}
		opts.BeamWidth = *req.BeamSize
	}
	if p := req.Sampling; p != nil {
		cfg := logits.SamplerConfig{Temperature: 1, RepeatPenalty: 1}
		if p.Temperature != nil {
			cfg.Temperature = float32(*p.Temperature)
		}
		if p.TopK != nil {
			cfg.TopK = *p.TopK
		}
		if p.TopP != nil {
			cfg.TopP = float32(*p.TopP)
		}
		if p.MinP != nil {
			cfg.MinP = float32(*p.MinP)
		}
		if p.RepeatPenalty != nil {
			cfg.RepeatPenalty = float32(*p.RepeatPenalty)
		}
		if p.Seed != nil {
			cfg.Seed = *p.Seed
		}
		opts.Sampling = &cfg
	}
	return opts, nil
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
