package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/jurnalcek/internal/models"
	"github.com/xhad/jurnalcek/pkg/registry"
	"github.com/xhad/jurnalcek/pkg/scorer"
)

type keywordEmbedder struct{ vocab []string }

func (e keywordEmbedder) embed(text string) []float32 {
	vec := make([]float32, len(e.vocab))
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		for i, v := range e.vocab {
			if w == v {
				vec[i]++
			}
		}
	}
	return vec
}

func (e keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	emb := keywordEmbedder{vocab: []string{"manajemen", "rumah", "sakit", "mutu", "kesehatan", "masyarakat", "pengabdian"}}
	ix, err := scorer.NewIndex(context.Background(), emb, registry.Defaults(), scorer.ScorerConfig{})
	require.NoError(t, err)

	ts := httptest.NewServer(New(Config{MaxBodyBytes: 1024}, ix).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// stubChecker fails or panics on demand.
type stubChecker struct {
	err   error
	panic bool
}

func (c stubChecker) Check(context.Context, string, int) (*models.CheckResult, error) {
	if c.panic {
		panic("boom")
	}
	return nil, c.err
}

func (c stubChecker) Journals() []models.Journal { return nil }

func (c stubChecker) Snippet(text string) string { return text }

func postCheck(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url+"/api/check", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestCheckEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/check", "application/json", strings.NewReader(`{"title":"Manajemen mutu rumah sakit"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var result models.CheckResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, "Manajemen mutu rumah sakit", result.Title)
	assert.Equal(t, models.Suitable, result.Recommendation)
	assert.Equal(t, "Jurnal Manajemen Kesehatan", result.BestMatch.Journal)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, result.Matches[0], result.BestMatch)
	assert.GreaterOrEqual(t, result.Matches[0].Score, result.Matches[1].Score)
	for _, m := range result.Matches {
		assert.LessOrEqual(t, utf8.RuneCountInString(m.ScopeSnippet), 283)
	}
}

func TestCheckEndpointJSONShape(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postCheck(t, ts.URL, `{"title":"pengabdian masyarakat","top_k":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, key := range []string{"title", "recommendation", "best_match", "matches"} {
		assert.Contains(t, out, key)
	}
	best := out["best_match"].(map[string]any)
	for _, key := range []string{"journal", "score", "scope_snippet"} {
		assert.Contains(t, best, key)
	}
	assert.Equal(t, "Jurnal Abdimas JATIBARA", best["journal"])
	assert.Len(t, out["matches"], 1)
}

func TestCheckEndpointBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"empty title", `{"title":""}`, http.StatusBadRequest, "No title provided"},
		{"whitespace title", `{"title":"   \n\t"}`, http.StatusBadRequest, "No title provided"},
		{"missing title", `{}`, http.StatusBadRequest, "No title provided"},
		{"empty body", ``, http.StatusBadRequest, "No title provided"},
		{"malformed", `{"title":`, http.StatusBadRequest, "invalid request body"},
		{"wrong type", `{"title":42}`, http.StatusBadRequest, "invalid request body"},
		{"too large", `{"title":"` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge, "request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postCheck(t, ts.URL, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.msg, out["error"])
			assert.NotContains(t, out, "matches")
		})
	}
}

func TestCheckEndpointMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/check")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCheckEndpointCheckerFailure(t *testing.T) {
	ts := httptest.NewServer(New(Config{}, stubChecker{err: errors.New("ollama unreachable")}).Handler())
	defer ts.Close()

	resp, out := postCheck(t, ts.URL, `{"title":"judul"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to check title", out["error"])
}

func TestCheckEndpointEmptyAfterNormalization(t *testing.T) {
	ts := httptest.NewServer(New(Config{}, stubChecker{err: scorer.ErrEmptyTitle}).Handler())
	defer ts.Close()

	resp, out := postCheck(t, ts.URL, `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No title provided", out["error"])
}

func TestRecoverMiddleware(t *testing.T) {
	ts := httptest.NewServer(New(Config{}, stubChecker{panic: true}).Handler())
	defer ts.Close()

	resp, out := postCheck(t, ts.URL, `{"title":"judul"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", out["error"])
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, map[string]string{"status": "ok"}, out)
}

func TestJournalsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/journals")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []journalResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 2)
	assert.Equal(t, "Jurnal Manajemen Kesehatan", out[0].Journal)
	assert.Equal(t, "Jurnal Abdimas JATIBARA", out[1].Journal)
	assert.NotEmpty(t, out[0].ScopeSnippet)
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "AI Title Checker", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("input#titleInput[type=text]").Length())
	assert.Equal(t, 1, doc.Find("button#checkButton").Length())
	assert.Contains(t, doc.Find("script").Text(), "/api/check")

	notFound, err := http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestWebSocketCheck(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: "check", Content: "Manajemen mutu rumah sakit"}))

	var reply struct {
		Type string             `json:"type"`
		Data models.CheckResult `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "result", reply.Type)
	assert.Equal(t, "Jurnal Manajemen Kesehatan", reply.Data.BestMatch.Journal)
	assert.Equal(t, models.Suitable, reply.Data.Recommendation)

	require.NoError(t, conn.WriteJSON(Message{Type: "check", Content: "  "}))
	var errReply Message
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, "error", errReply.Type)
	assert.Equal(t, "No title provided", errReply.Content)

	require.NoError(t, conn.WriteJSON(Message{Type: "chat", Content: "hi"}))
	require.NoError(t, conn.ReadJSON(&errReply))
	assert.Equal(t, "error", errReply.Type)
	assert.Contains(t, errReply.Content, "unknown message type")
}

func TestWebSocketRejectsCrossOrigin(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
