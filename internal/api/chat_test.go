package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudshift-ai/migbot/internal/chat"
	"github.com/cloudshift-ai/migbot/internal/index"
	"github.com/cloudshift-ai/migbot/internal/log"
	"github.com/cloudshift-ai/migbot/internal/memory"
	"github.com/cloudshift-ai/migbot/internal/testutil"
)

type stubRetriever struct {
	chunks []index.Chunk
	err    error
	calls  int
}

func (s *stubRetriever) Retrieve(context.Context, string) ([]index.Chunk, error) {
	s.calls++
	return s.chunks, s.err
}

type stubGenerator struct {
	fragments []string
	err       error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string, onToken func(string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var full strings.Builder
	for _, f := range s.fragments {
		if onToken != nil {
			if err := onToken(f); err != nil {
				return "", err
			}
		}
		full.WriteString(f)
	}
	return full.String(), nil
}

type serverFixture struct {
	handler http.Handler
	mem     *memory.InMemoryStore
	ret     *stubRetriever
}

func newFixture(ret *stubRetriever, gen *stubGenerator) *serverFixture {
	mem := memory.NewInMemoryStore()
	svc := chat.NewService(ret, mem, gen, log.NewNop(), chat.WithPacing(0))
	srv := NewServer(svc, mem, nil, []string{"*"}, log.NewNop())
	return &serverFixture{handler: srv.Handler(), mem: mem, ret: ret}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatSynchronous(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubRetriever{}, &stubGenerator{fragments: []string{"Migration takes about a week."}})

	rec := postJSON(t, f.handler, "/chat", ChatRequest{
		Question: "How do I migrate Slack channels to Teams?",
		UserID:   "u1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Migration takes about a week.", resp.Answer)
	assert.Equal(t, "u1", resp.UserID)
	assert.NotEmpty(t, resp.SessionID, "a session id is always minted")

	// Memory gains both turns keyed by the user id.
	history := f.mem.History("u1")
	require.Len(t, history, 2)
	assert.Equal(t, memory.RoleUser, history[0].Role)
	assert.Equal(t, memory.RoleAssistant, history[1].Role)
}

func TestChatConversationalBypassesRetrieval(t *testing.T) {
	t.Parallel()

	ret := &stubRetriever{}
	f := newFixture(ret, &stubGenerator{fragments: []string{"Hi! How can I help with your migration?"}})

	rec := postJSON(t, f.handler, "/chat", ChatRequest{Question: "hello", UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, ret.calls)
}

func TestChatMissingQuestion(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubRetriever{}, &stubGenerator{})

	rec := postJSON(t, f.handler, "/chat", ChatRequest{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing_question", resp.Error)
}

func TestChatSessionIdentityFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubRetriever{}, &stubGenerator{fragments: []string{"answer"}})

	rec := postJSON(t, f.handler, "/chat", ChatRequest{
		Question:  "How do I migrate user accounts?",
		SessionID: "sess-42",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-42", resp.SessionID)
	assert.Len(t, f.mem.History("sess-42"), 2, "session id keys memory when user id is absent")
}

func TestChatStreamEventSequence(t *testing.T) {
	t.Parallel()

	f := newFixture(
		&stubRetriever{chunks: []index.Chunk{{
			Text:     "export guide",
			Metadata: map[string]string{index.MetaSourceType: index.SourceTypePDF, index.MetaSource: "g.pdf"},
		}}},
		&stubGenerator{fragments: []string{"Step ", "one: ", "export."}},
	)

	rec := postJSON(t, f.handler, "/chat/stream", ChatRequest{
		Question: "How do I migrate Slack channels to Teams?",
		UserID:   "u1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	events := testutil.ParseSSEEvents(t, rec.Body.String())
	require.NotEmpty(t, events)

	assert.Equal(t, string(chat.EventThinkingComplete), events[0].Type)

	tokens := testutil.FindAllEvents(events, string(chat.EventToken))
	require.Len(t, tokens, 3)

	var concat strings.Builder
	for _, te := range tokens {
		var ev chat.Event
		require.NoError(t, json.Unmarshal([]byte(te.Data), &ev))
		concat.WriteString(ev.Token)
	}

	done := testutil.FindEvent(events, string(chat.EventDone))
	require.NotNil(t, done)
	var doneEv chat.Event
	require.NoError(t, json.Unmarshal([]byte(done.Data), &doneEv))
	assert.Equal(t, concat.String(), doneEv.FullResponse)

	assert.Nil(t, testutil.FindEvent(events, string(chat.EventError)))
}

func TestChatStreamGenerationError(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubRetriever{}, &stubGenerator{err: errors.New("model overloaded")})

	rec := postJSON(t, f.handler, "/chat/stream", ChatRequest{
		Question: "How do I migrate shared channels?",
		UserID:   "u1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	events := testutil.ParseSSEEvents(t, rec.Body.String())
	errEv := testutil.FindEvent(events, string(chat.EventError))
	require.NotNil(t, errEv)

	var ev chat.Event
	require.NoError(t, json.Unmarshal([]byte(errEv.Data), &ev))
	assert.Contains(t, ev.Message, "model overloaded")

	assert.Nil(t, testutil.FindEvent(events, string(chat.EventDone)), "done and error are mutually exclusive")
	assert.Empty(t, f.mem.History("u1"))
}

func TestChatStreamInvalidBody(t *testing.T) {
	t.Parallel()

	f := newFixture(&stubRetriever{}, &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/chat/stream", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	events := testutil.ParseSSEEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, string(chat.EventError), events[0].Type)
}
