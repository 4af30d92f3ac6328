package rest_test

import (
	"LinguaChat/internal/adapter/shell"
	"LinguaChat/internal/adapter/shell/rest"
	"LinguaChat/internal/ai"
	"LinguaChat/internal/service/level"
	"LinguaChat/internal/service/prompt"
	"LinguaChat/internal/service/session"
	"LinguaChat/internal/service/tutor"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

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
	return `{"language":"Turkish","level":"A2"}`, nil
}

func newServer(t *testing.T, g *fakeGateway) *httptest.Server {
	t.Helper()
	logger := zap.NewNop().Sugar()
	tr := tutor.New(session.NewStore(), g, level.NewDetector(g, level.Config{}, logger), prompt.NewComposer(""), logger)
	srv := httptest.NewServer(rest.NewServer(rest.Config{}, tr, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newSessionID(t *testing.T, base string) string {
	t.Helper()
	resp, err := http.Get(base + "/new-session")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.SessionID == "" {
		t.Fatal("empty session_id")
	}
	return body.SessionID
}

func postChat(t *testing.T, base, id, msg string) (int, map[string]string) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"session_id": id, "message": msg})
	resp, err := http.Post(base+"/chat", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestChat_DetectionAfterThreeMessages(t *testing.T) {
	srv := newServer(t, &fakeGateway{})
	id := newSessionID(t, srv.URL)

	msgs := []string{"Merhaba", "Benim adım Ayşe", "Türkçe öğreniyorum"}
	for i, m := range msgs {
		status, body := postChat(t, srv.URL, id, m)
		if status != http.StatusOK {
			t.Fatalf("turn %d: status %d, body %v", i+1, status, body)
		}
		if body["reply"] != "echo: "+m {
			t.Errorf("turn %d: got reply %q", i+1, body["reply"])
		}
		if i < 2 {
			if _, ok := body["detected_language"]; ok {
				t.Errorf("turn %d: detection should be absent, got %v", i+1, body)
			}
			continue
		}
		if body["detected_language"] != "Turkish" || body["detected_level"] != "A2" {
			t.Errorf("turn %d: got detection %q/%q", i+1, body["detected_language"], body["detected_level"])
		}
	}
}

func TestChat_Errors(t *testing.T) {
	srv := newServer(t, &fakeGateway{})
	id := newSessionID(t, srv.URL)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing session", `{"message":"hi"}`, http.StatusBadRequest},
		{"unknown session", `{"session_id":"nope","message":"hi"}`, http.StatusNotFound},
		{"empty message", `{"session_id":"` + id + `","message":"  "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("got status %d, want %d", resp.StatusCode, tt.want)
			}
			var e map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e["error"] == "" {
				t.Errorf("expected JSON error body, got %v (%v)", e, err)
			}
		})
	}
}

func TestChat_GatewayErrors(t *testing.T) {
	tests := []struct {
		kind ai.Kind
		want int
	}{
		{ai.KindTimeout, http.StatusGatewayTimeout},
		{ai.KindRateLimit, http.StatusServiceUnavailable},
		{ai.KindAuth, http.StatusBadGateway},
		{ai.KindMalformed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			srv := newServer(t, &fakeGateway{err: &ai.Error{Kind: tt.kind, Err: errors.New("fail")}})
			id := newSessionID(t, srv.URL)

			status, body := postChat(t, srv.URL, id, "hello")
			if status != tt.want {
				t.Errorf("got status %d, want %d", status, tt.want)
			}
			if body["error"] != shell.RetryMessage {
				t.Errorf("got error %q", body["error"])
			}

			// реплика пользователя сохранена, ответа ассистента нет
			resp, err := http.Get(srv.URL + "/sessions/" + id)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			var sess session.Session
			if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
				t.Fatal(err)
			}
			if len(sess.Turns) != 1 || sess.Turns[0].Role != session.RoleUser {
				t.Errorf("got turns %+v", sess.Turns)
			}
		})
	}
}

func TestSessions_GetAndReset(t *testing.T) {
	srv := newServer(t, &fakeGateway{})
	id := newSessionID(t, srv.URL)
	postChat(t, srv.URL, id, "Ciao")

	resp, err := http.Post(srv.URL+"/sessions/"+id+"/reset", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	if sess.ID != id || len(sess.Turns) != 0 || sess.Detection != nil {
		t.Errorf("got reset session %+v", sess)
	}

	resp2, err := http.Get(srv.URL + "/sessions/unknown")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d, want 404", resp2.StatusCode)
	}
}

func TestNewSession_Distinct(t *testing.T) {
	srv := newServer(t, &fakeGateway{})
	a := newSessionID(t, srv.URL)
	b := newSessionID(t, srv.URL)
	if a == b {
		t.Errorf("new-session returned the same id twice: %q", a)
	}
}

func TestPage_FormFlow(t *testing.T) {
	srv := newServer(t, &fakeGateway{})
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	u, _ := url.Parse(srv.URL)
	if len(jar.Cookies(u)) == 0 {
		t.Fatal("session cookie not set")
	}

	resp, err = client.PostForm(srv.URL+"/", url.Values{"message": {"Bonjour <b>toi</b>"}})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d after redirect", resp.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "echo: Bonjour &lt;b&gt;toi&lt;/b&gt;") {
		t.Errorf("reply missing or not escaped in page:\n%s", page)
	}

	resp, err = client.PostForm(srv.URL+"/new", nil)
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.Contains(string(body), "Bonjour") {
		t.Error("new session page should not show previous turns")
	}
}

func TestPage_GatewayErrorShowsRetry(t *testing.T) {
	srv := newServer(t, &fakeGateway{err: &ai.Error{Kind: ai.KindTimeout, Err: errors.New("slow")}})
	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(srv.URL+"/", url.Values{"message": {"Hallo"}})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("got status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), shell.RetryMessage) || !strings.Contains(string(body), "Hallo") {
		t.Errorf("page should show retry message and keep the draft:\n%s", body)
	}
}
