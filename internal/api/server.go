package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/s2s/internal/logger"
	"github.com/samcharles93/s2s/internal/translate"
	"github.com/samcharles93/s2s/internal/vocab"
)

// Translator is the part of *translate.Translator the server needs.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (*translate.Result, error)
	Vocabulary() vocab.Pair
}

type Server struct {
	store      *TranslationStore
	translator Translator
	log        logger.Logger
	clock      func() time.Time
}

func NewServer(store *TranslationStore, tr Translator, log logger.Logger) *Server {
	if store == nil {
		store = NewTranslationStore(0)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		store:      store,
		translator: tr,
		log:        log,
		clock:      time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/vocabulary", s.handleVocabulary)

	e.POST("/v1/translations", s.handleCreateTranslation)
	e.GET("/v1/translations/:id", s.handleGetTranslation)
	e.DELETE("/v1/translations/:id", s.handleDeleteTranslation)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateTranslation(c *echo.Context) error {
	if s.translator == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translator not configured", "", "")
	}
	req, err := decodeJSON[TranslationRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if strings.TrimSpace(req.Text) == "" {
		return writeTranslateError(c, newInvalidRequest("text", "text is required"))
	}

	ctx := logger.WithContext(c.Request().Context(), s.log)
	res, err := s.translator.Translate(ctx, translate.Request{
		Text:         req.Text,
		MaxLength:    req.MaxLength,
		NoSubstitute: req.NoSubstitute,
	})
	if err != nil {
		s.log.Warn("translation failed", "error", err)
		return writeTranslateError(c, err)
	}

	out := newTranslation(res, s.clock())
	if req.Store == nil || *req.Store {
		s.store.Put(out)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTranslation(c *echo.Context) error {
	t, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "translation not found")
	}
	return c.JSON(http.StatusOK, t)
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

func (s *Server) handleVocabulary(c *echo.Context) error {
	if s.translator == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "translator not configured", "", "")
	}
	pair := s.translator.Vocabulary()
	return c.JSON(http.StatusOK, VocabularyResp{
		Object: "vocabulary",
		Input:  vocabularySide(pair.Input),
		Target: vocabularySide(pair.Target),
	})
}

func newTranslation(res *translate.Result, now time.Time) Translation {
	t := Translation{
		ID:          "tr_" + uuid.NewString(),
		Object:      "translation",
		CreatedAt:   now.Unix(),
		Input:       res.Input,
		Substituted: res.Substituted,
		Decoded:     res.Decoded,
		Output:      res.Output,
		Steps:       res.Decode.Steps,
		Stopped:     res.Decode.Stopped,
		DurationMS:  float64(res.Decode.Duration) / float64(time.Millisecond),
	}
	if res.Substitution.Replaced() {
		t.Substitution = &SubstitutionInfo{
			Word:  res.Substitution.Word,
			Count: res.Substitution.Count,
		}
	}
	return t
}

func vocabularySide(v *vocab.Vocabulary) VocabularySide {
	if v == nil {
		return VocabularySide{Symbols: []string{}}
	}
	syms := v.Symbols()
	out := make([]string, len(syms))
	for i, r := range syms {
		out[i] = string(r)
	}
	return VocabularySide{Size: v.Size(), Symbols: out}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
