package live_test

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/adapter/shell/live"
	"LinguaChat/internal/ai"
	"LinguaChat/internal/service/level"
	"LinguaChat/internal/service/prompt"
	"LinguaChat/internal/service/session"
	"LinguaChat/internal/service/tutor"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type fakeGateway struct {
	err error
}

func (g *fakeGateway) Send(_ context.Context, _ string, transcript []session.Turn) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "echo: " + transcript[len(transcript)-1].Text, nil
}

func (g *fakeGateway) Classify(context.Context, string, string) (string, error) {
	return `{"language":"French","level":"B2"}`, nil
}

type frame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Language  string `json:"language"`
	Level     string `json:"level"`
}

func setup(t *testing.T, g *fakeGateway) (*httptest.Server, *session.Store) {
	t.Helper()
	logger := zap.NewNop().Sugar()
	store := session.NewStore()
	tr := tutor.New(store, g, level.NewDetector(g, level.Config{}, logger), prompt.NewComposer(""), logger)
	srv := httptest.NewServer(live.NewServer(live.Config{}, tr, logger).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func send(t *testing.T, conn *websocket.Conn, typ, text string) {
	t.Helper()
	if err := conn.WriteJSON(map[string]string{"type": typ, "text": text}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLive_Page(t *testing.T) {
	srv, _ := setup(t, &fakeGateway{})
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "new WebSocket") {
		t.Error("page does not open a websocket")
	}
}

func TestLive_Conversation(t *testing.T) {
	srv, _ := setup(t, &fakeGateway{})
	conn := dial(t, srv)

	hello := read(t, conn)
	if hello.Type != "session" || hello.SessionID == "" {
		t.Fatalf("got first frame %+v", hello)
	}

	msgs := []string{"Bonjour", "Je m'appelle Paul", "J'habite à Lyon"}
	for i, m := range msgs {
		send(t, conn, "message", m)
		f := read(t, conn)
		if f.Type != "reply" || f.Text != "echo: "+m {
			t.Fatalf("turn %d: got %+v", i+1, f)
		}
		if f.SessionID != hello.SessionID {
			t.Errorf("turn %d: session changed to %q", i+1, f.SessionID)
		}
		if i < 2 && f.Language != "" {
			t.Errorf("turn %d: detection too early: %+v", i+1, f)
		}
		if i == 2 && (f.Language != "French" || f.Level != "B2") {
			t.Errorf("turn 3: got detection %q/%q", f.Language, f.Level)
		}
	}
}

func TestLive_ResetAndNew(t *testing.T) {
	srv, store := setup(t, &fakeGateway{})
	conn := dial(t, srv)
	first := read(t, conn).SessionID

	send(t, conn, "message", "Ciao")
	read(t, conn)

	send(t, conn, "reset", "")
	if f := read(t, conn); f.Type != "session" || f.SessionID != first {
		t.Errorf("reset should keep the id, got %+v", f)
	}
	sess, err := store.Get(first)
	if err != nil || len(sess.Turns) != 0 {
		t.Errorf("reset session: %+v, %v", sess, err)
	}

	send(t, conn, "new", "")
	f := read(t, conn)
	if f.Type != "session" || f.SessionID == first {
		t.Errorf("new should issue a fresh id, got %+v", f)
	}
	if _, err := store.Get(first); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("previous session should be dropped, got %v", err)
	}
}

func TestLive_Errors(t *testing.T) {
	srv, _ := setup(t, &fakeGateway{err: &ai.Error{Kind: ai.KindRateLimit, Err: errors.New("429")}})
	conn := dial(t, srv)
	read(t, conn)

	send(t, conn, "message", "Hallo")
	if f := read(t, conn); f.Type != "error" || f.Text != shell.RetryMessage {
		t.Errorf("got %+v, want retry error", f)
	}

	send(t, conn, "message", "   ")
	if f := read(t, conn); f.Type != "error" || f.Text == shell.RetryMessage {
		t.Errorf("got %+v, want validation error", f)
	}

	send(t, conn, "bogus", "")
	if f := read(t, conn); f.Type != "error" {
		t.Errorf("got %+v, want error frame", f)
	}
}

func TestLive_SessionDroppedOnDisconnect(t *testing.T) {
	srv, store := setup(t, &fakeGateway{})
	conn := dial(t, srv)
	read(t, conn)
	if store.Len() != 1 {
		t.Fatalf("got %d sessions, want 1", store.Len())
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Errorf("got %d sessions after disconnect, want 0", store.Len())
	}
}
