package sse_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/reveal"
	revealjson "github.com/fwojciec/reveal/json"
	"github.com/fwojciec/reveal/mock"
	"github.com/fwojciec/reveal/playback"
	"github.com/fwojciec/reveal/script"
	"github.com/fwojciec/reveal/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

func newServer(t *testing.T, actions string) (*httptest.Server, *playback.Controller) {
	t.Helper()
	gen, err := script.New(actions)
	require.NoError(t, err)
	return newServerWith(t, gen)
}

func newServerWith(t *testing.T, gen reveal.Generator) (*httptest.Server, *playback.Controller) {
	t.Helper()
	cfg := reveal.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	ctrl, err := playback.New(gen, playback.WithConfig(cfg))
	require.NoError(t, err)

	srv := sse.New(ctrl)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
		_ = ctrl.Close()
	})
	return ts, ctrl
}

func post(t *testing.T, ts *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type event struct {
	name string
	data string
}

// subscribe opens the event stream and parses it on a goroutine. The stream
// closes when the test ends.
func subscribe(t *testing.T, ts *httptest.Server) <-chan event {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)

	events := make(chan event, 256)
	go func() {
		defer close(events)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()
		var cur event
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if cur.name != "" {
					events <- cur
				}
				cur = event{}
			case strings.HasPrefix(line, "event:"):
				cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				cur.data += strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			}
		}
	}()
	return events
}

// awaitSubscribed clears the conversation until the stream reports it, so
// later events are known to reach the subscriber.
func awaitSubscribed(t *testing.T, ts *httptest.Server, events <-chan event) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		post(t, ts, "/clear", nil)
		select {
		case e := <-events:
			if e.name == revealjson.EventConversationCleared {
				drain(events)
				return
			}
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("event stream never became live")
		}
	}
}

func drain(events <-chan event) {
	for {
		select {
		case <-events:
		case <-time.After(20 * time.Millisecond):
			return
		}
	}
}

func TestServer_Chat(t *testing.T) {
	t.Parallel()

	t.Run("starts a reply and returns its id", func(t *testing.T) {
		t.Parallel()
		ts, ctrl := newServer(t, "msg:Hello")

		resp := post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NoError(t, ctrl.Wait(t.Context()))
		msgs := ctrl.Store().Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "Hello", msgs[1].Content)
	})

	t.Run("rejects an empty prompt", func(t *testing.T) {
		t.Parallel()
		ts, _ := newServer(t, "msg:Hello")

		resp := post(t, ts, "/chat", url.Values{"prompt": {"  "}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a second prompt while a reply is playing", func(t *testing.T) {
		t.Parallel()
		ts, _ := newServer(t, "hang")

		first := post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})
		second := post(t, ts, "/chat", url.Values{"prompt": {"Again"}})

		assert.Equal(t, http.StatusAccepted, first.StatusCode)
		assert.Equal(t, http.StatusConflict, second.StatusCode)
	})

	t.Run("passes the transaction along", func(t *testing.T) {
		t.Parallel()
		requests := make(chan reveal.Request, 1)
		gen := &mock.Generator{
			StreamFn: func(_ context.Context, req reveal.Request) (reveal.FragmentStream, error) {
				requests <- req
				return &mock.FragmentStream{
					NextFn: func() (string, error) { return "", io.EOF },
				}, nil
			},
		}
		ts, ctrl := newServerWith(t, gen)

		resp := post(t, ts, "/chat", url.Values{"prompt": {"Refund?"}, "transaction": {"order 42"}})

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.NoError(t, ctrl.Wait(t.Context()))
		req := <-requests
		assert.Equal(t, "Refund?", req.Prompt)
		assert.Equal(t, "order 42", req.Transaction)
	})

	t.Run("only accepts POST", func(t *testing.T) {
		t.Parallel()
		ts, _ := newServer(t, "msg:Hello")

		resp, err := http.Get(ts.URL + "/chat")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestServer_StopAndClear(t *testing.T) {
	t.Parallel()

	t.Run("stop ends the active reply", func(t *testing.T) {
		t.Parallel()
		ts, ctrl := newServer(t, "msg:Hel,hang")
		post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})

		resp := post(t, ts, "/stop", nil)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.NoError(t, ctrl.Wait(t.Context()))
		assert.Equal(t, reveal.StateStopped, ctrl.State())
	})

	t.Run("clear empties the conversation", func(t *testing.T) {
		t.Parallel()
		ts, ctrl := newServer(t, "msg:Hello")
		post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})
		require.NoError(t, ctrl.Wait(t.Context()))

		resp := post(t, ts, "/clear", nil)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, ctrl.Store().Messages())
	})
}

func TestServer_Messages(t *testing.T) {
	t.Parallel()

	ts, ctrl := newServer(t, "msg:Hello")
	post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})
	require.NoError(t, ctrl.Wait(t.Context()))

	resp, err := http.Get(ts.URL + "/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	snapshot, err := revealjson.UnmarshalSnapshot(body)
	require.NoError(t, err)

	assert.False(t, snapshot.Active)
	assert.Empty(t, snapshot.StreamingID)
	require.Len(t, snapshot.Messages, 2)
	assert.Equal(t, reveal.RoleUser, snapshot.Messages[0].Role)
	assert.Equal(t, "Hello", snapshot.Messages[1].Content)
}

func TestServer_Events(t *testing.T) {
	t.Parallel()

	ts, ctrl := newServer(t, "msg:Hello ,msg:world")
	events := subscribe(t, ts)
	awaitSubscribed(t, ts, events)

	post(t, ts, "/chat", url.Values{"prompt": {"Hi"}})
	require.NoError(t, ctrl.Wait(t.Context()))

	var got []reveal.Event
	timeout := time.After(waitTimeout)
	for {
		var e event
		select {
		case e = <-events:
		case <-timeout:
			t.Fatalf("no session_ended event; got %v", got)
		}
		decoded, err := revealjson.UnmarshalEvent(e.name, []byte(e.data))
		require.NoError(t, err)
		got = append(got, decoded)
		if e.name == revealjson.EventSessionEnded {
			break
		}
	}

	require.GreaterOrEqual(t, len(got), 4)
	assert.IsType(t, reveal.EventMessageAppended{}, got[0])
	assert.IsType(t, reveal.EventMessageAppended{}, got[1])
	assert.IsType(t, reveal.EventSessionStarted{}, got[2])
	assert.Equal(t, reveal.StateCompleted, got[len(got)-1].(reveal.EventSessionEnded).State)

	last := ""
	for _, e := range got {
		if u, ok := e.(reveal.EventMessageUpdated); ok {
			assert.True(t, strings.HasPrefix(u.Content, last), "update %q does not extend %q", u.Content, last)
			last = u.Content
		}
	}
	assert.Equal(t, "Hello world", last)
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	msg, err := sse.NewMessage(reveal.EventMessageUpdated{ID: "a1", Content: "Hel"})
	require.NoError(t, err)

	text, err := msg.MarshalText()
	require.NoError(t, err)
	assert.Contains(t, string(text), "message_updated")
	assert.Contains(t, string(text), `{"id":"a1","content":"Hel"}`)
}
