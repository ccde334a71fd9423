package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/s2s/internal/bundle"
	"github.com/samcharles93/s2s/internal/decode"
	"github.com/samcharles93/s2s/internal/logger"
	"github.com/samcharles93/s2s/internal/substitute"
	"github.com/samcharles93/s2s/internal/translate"
	"github.com/samcharles93/s2s/internal/vocab"
)

type stubTranslator struct {
	res  *translate.Result
	err  error
	last translate.Request
}

func (s *stubTranslator) Translate(_ context.Context, req translate.Request) (*translate.Result, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func (s *stubTranslator) Vocabulary() vocab.Pair {
	return vocab.Pair{Input: vocab.FromString("ab "), Target: vocab.FromString("\t\nxy")}
}

func okResult() *translate.Result {
	return &translate.Result{
		Input:        "zur marienplatz",
		Substituted:  "zur M",
		Decoded:      "am M",
		Output:       "am marienplatz",
		Substitution: substitute.Substitution{Word: "marienplatz", Count: 1},
		Decode:       decode.Result{Symbols: []rune("am M\n"), Steps: 5, Stopped: true},
	}
}

func newTestEcho(tr Translator) *echo.Echo {
	server := NewServer(NewTranslationStore(4), tr, logger.Text(&strings.Builder{}, 0))
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestEcho(&stubTranslator{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := decodeBody[map[string]string](t, rec); got["status"] != "ok" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestCreateGetDeleteTranslationLifecycle(t *testing.T) {
	t.Parallel()

	tr := &stubTranslator{res: okResult()}
	e := newTestEcho(tr)
	createRec := doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"zur marienplatz","max_length":12}`)
	if createRec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}

	created := decodeBody[Translation](t, createRec)
	if !strings.HasPrefix(created.ID, "tr_") {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.Object != "translation" || created.Output != "am marienplatz" || created.Decoded != "am M" {
		t.Fatalf("unexpected translation %+v", created)
	}
	if created.Steps != 5 || !created.Stopped {
		t.Fatalf("unexpected decode info %+v", created)
	}
	if created.Substitution == nil || created.Substitution.Word != "marienplatz" {
		t.Fatalf("missing substitution info: %+v", created.Substitution)
	}
	if tr.last.MaxLength == nil || *tr.last.MaxLength != 12 {
		t.Fatalf("max_length not forwarded: %+v", tr.last)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/translations/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d body=%s", getRec.Code, getRec.Body.String())
	}
	if got := decodeBody[Translation](t, getRec); got.ID != created.ID {
		t.Fatalf("get returned %q, want %q", got.ID, created.ID)
	}

	delRec := doJSON(t, e, http.MethodDelete, "/v1/translations/"+created.ID, "")
	if delRec.Code != http.StatusOK {
		t.Fatalf("delete status: got %d body=%s", delRec.Code, delRec.Body.String())
	}
	if got := decodeBody[DeleteTranslationResp](t, delRec); !got.Deleted || got.ID != created.ID {
		t.Fatalf("unexpected delete body %+v", got)
	}

	if rec := doJSON(t, e, http.MethodGet, "/v1/translations/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodDelete, "/v1/translations/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d", rec.Code)
	}
}

func TestCreateTranslationWithoutStore(t *testing.T) {
	t.Parallel()

	e := newTestEcho(&stubTranslator{res: okResult()})
	rec := doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"zur marienplatz","store":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status: got %d body=%s", rec.Code, rec.Body.String())
	}
	created := decodeBody[Translation](t, rec)
	if rec := doJSON(t, e, http.MethodGet, "/v1/translations/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unstored translation should not be retrievable, got %d", rec.Code)
	}
}

func TestCreateTranslationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		err       error
		wantCode  int
		wantType  string
		wantParam string
	}{
		{"malformed json", `{"text":`, nil, http.StatusBadRequest, "invalid_request_error", ""},
		{"unknown field", `{"text":"a","temperature":1}`, nil, http.StatusBadRequest, "invalid_request_error", ""},
		{"empty text", `{"text":""}`, nil, http.StatusBadRequest, "invalid_request_error", "text"},
		{"blank text", `{"text":" \t\n "}`, nil, http.StatusBadRequest, "invalid_request_error", "text"},
		{"unknown symbol", `{"text":"Q"}`, fmt.Errorf("encode input: %w", vocab.ErrUnknownSymbol), http.StatusBadRequest, "invalid_request_error", ""},
		{"too long", `{"text":"a"}`, fmt.Errorf("encode input: %w", vocab.ErrSequenceTooLong), http.StatusBadRequest, "invalid_request_error", ""},
		{"bad max length", `{"text":"a","max_length":0}`, decode.ErrInvalidConfig, http.StatusBadRequest, "invalid_request_error", ""},
		{"max length above bound", `{"text":"a","max_length":2000000000}`, fmt.Errorf("%w: 2000000000 > 60", translate.ErrMaxLengthExceeded), http.StatusBadRequest, "invalid_request_error", "max_length"},
		{"model failure", `{"text":"a"}`, errors.New("weights corrupted"), http.StatusInternalServerError, "server_error", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEcho(&stubTranslator{res: okResult(), err: tc.err})
			rec := doJSON(t, e, http.MethodPost, "/v1/translations", tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("status: got %d want %d body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			body := decodeBody[map[string]ErrorBody](t, rec)
			if got := body["error"]; got.Type != tc.wantType || got.Param != tc.wantParam || got.Message == "" {
				t.Fatalf("unexpected error body %+v", got)
			}
		})
	}
}

func TestVocabulary(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestEcho(&stubTranslator{}), http.MethodGet, "/v1/vocabulary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	got := decodeBody[VocabularyResp](t, rec)
	if got.Input.Size != 3 || strings.Join(got.Input.Symbols, "") != " ab" {
		t.Fatalf("unexpected input side %+v", got.Input)
	}
	if got.Target.Size != 4 || strings.Join(got.Target.Symbols, "") != "\t\nxy" {
		t.Fatalf("unexpected target side %+v", got.Target)
	}
}

func TestMissingTranslator(t *testing.T) {
	t.Parallel()

	e := newTestEcho(nil)
	if rec := doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"a"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("create: got %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodGet, "/v1/vocabulary", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("vocabulary: got %d", rec.Code)
	}
}

func TestTranslateWithDemoBundle(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "demo")
	if err := bundle.WriteDemo(dir, 8, 3); err != nil {
		t.Fatalf("WriteDemo: %v", err)
	}
	b, err := bundle.Load(dir)
	if err != nil {
		t.Fatalf("bundle.Load: %v", err)
	}
	tr, err := translate.FromBundle(b)
	if err != nil {
		t.Fatalf("FromBundle: %v", err)
	}

	e := newTestEcho(tr)
	rec := doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"wie komme ich zum marienplatz","max_length":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeBody[Translation](t, rec)
	if got.Substituted != "wie komme ich zum M" {
		t.Fatalf("unexpected substitution %q", got.Substituted)
	}
	if got.Steps < 1 || got.Steps > 6 {
		t.Fatalf("steps %d outside [1,6]", got.Steps)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"Hallo"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown symbol: got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/translations", `{"text":"zum dorf","max_length":2000000000}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("max length above bound: got %d body=%s", rec.Code, rec.Body.String())
	}
	if body := decodeBody[map[string]ErrorBody](t, rec); body["error"].Param != "max_length" {
		t.Fatalf("unexpected error body %+v", body["error"])
	}
}
