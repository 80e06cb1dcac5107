// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/logging"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
	"github.com/jeranaias/taxassist-tui/internal/upstream/upstreamtest"
)

var fixedNow = func() time.Time { return time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, svc upstream.Service, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.RateLimit = 1000
	cfg.Server.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}
	return New(Options{Config: cfg, Service: svc, Version: "test", Now: fixedNow})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// =============================================================================
// HTTP HANDLERS
// =============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[healthResponse](t, rec)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("unexpected health response %+v", resp)
	}
	if resp.APIKey {
		t.Error("api_key should be false without a service")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestFeatures_AvailabilityFollowsKey(t *testing.T) {
	s := newTestServer(t, nil, nil)
	resp := decode[struct {
		App      string        `json:"app"`
		Features []featureInfo `json:"features"`
	}](t, do(t, s, http.MethodGet, "/api/features", nil))

	if resp.App != features.AppName {
		t.Errorf("app = %q, want %q", resp.App, features.AppName)
	}
	if len(resp.Features) != len(features.All()) {
		t.Fatalf("got %d features, want %d", len(resp.Features), len(features.All()))
	}
	for _, f := range resp.Features {
		if f.Available == f.UsesModel {
			t.Errorf("%s: available=%v uses_model=%v", f.Slug, f.Available, f.UsesModel)
		}
	}
}

func TestRender(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/render", renderRequest{Text: "Hello **world**\n\n* one\n* two"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[renderResponse](t, rec)
	want := "<p>Hello <strong>world</strong></p>\n<ul><li>one</li><li>two</li></ul>"
	if resp.HTML != want {
		t.Errorf("html = %q, want %q", resp.HTML, want)
	}
}

func TestRender_EscapesText(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodPost, "/api/render", renderRequest{Text: "<script>x</script> **ok**\n\n```\na < b\n```"})
	resp := decode[renderResponse](t, rec)
	want := "<p>&lt;script&gt;x&lt;/script&gt; <strong>ok</strong></p>\n<pre><code>a &lt; b</code></pre>"
	if resp.HTML != want {
		t.Errorf("html = %q, want %q", resp.HTML, want)
	}
}

func TestRender_InvalidJSON(t *testing.T) {
	s := newTestServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAsk(t *testing.T) {
	refs := []model.Reference{{Title: "IRS", URI: "https://irs.gov"}}

	tests := []struct {
		name       string
		svc        *upstreamtest.Scripted
		noService  bool
		req        askRequest
		wantStatus int
		wantKind   string
		check      func(t *testing.T, svc *upstreamtest.Scripted, resp askResponse)
	}{
		{
			name:       "research with search",
			svc:        &upstreamtest.Scripted{Fragments: []string{"Section ", "*179*"}, Refs: refs},
			req:        askRequest{Prompt: "What is 179?", Search: true},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, svc *upstreamtest.Scripted, resp askResponse) {
				if resp.Text != "Section *179*" || resp.HTML != "<p>Section <em>179</em></p>" {
					t.Errorf("unexpected response %+v", resp)
				}
				if len(resp.References) != 1 {
					t.Errorf("references = %v", resp.References)
				}
				if !svc.Calls()[0].Opts.UseSearchGrounding {
					t.Error("search grounding not requested")
				}
			},
		},
		{
			name:       "client communication builds prompt",
			svc:        &upstreamtest.Scripted{Fragments: []string{"Dear client"}},
			req:        askRequest{Prompt: "Depreciation recapture applies.", Feature: "client-communication", Audience: "investor"},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, svc *upstreamtest.Scripted, resp askResponse) {
				prompt := svc.Calls()[0].Prompt
				if !strings.Contains(prompt, "Depreciation recapture applies.") || !strings.Contains(prompt, string(features.Investor)) {
					t.Errorf("prompt not built from template: %q", prompt)
				}
			},
		},
		{
			name:       "custom instruction",
			svc:        &upstreamtest.Scripted{Fragments: []string{"ok"}},
			req:        askRequest{Prompt: "hi", Instruction: "Answer in one word."},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, svc *upstreamtest.Scripted, resp askResponse) {
				if got := svc.Calls()[0].Opts.CustomInstruction; got != "Answer in one word." {
					t.Errorf("instruction = %q", got)
				}
			},
		},
		{
			name:       "missing key",
			noService:  true,
			req:        askRequest{Prompt: "hi"},
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   "configuration",
		},
		{
			name:       "invalid key",
			svc:        &upstreamtest.Scripted{Err: errors.New("API key not valid. Please pass a valid API key.")},
			req:        askRequest{Prompt: "hi"},
			wantStatus: http.StatusBadGateway,
			wantKind:   "auth",
		},
		{
			name:       "empty prompt",
			svc:        &upstreamtest.Scripted{},
			req:        askRequest{Prompt: ""},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown feature",
			svc:        &upstreamtest.Scripted{},
			req:        askRequest{Prompt: "hi", Feature: "payroll"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "feature without model",
			svc:        &upstreamtest.Scripted{},
			req:        askRequest{Prompt: "hi", Feature: "checklist"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svc upstream.Service
			if !tt.noService {
				svc = tt.svc
			}
			s := newTestServer(t, svc, nil)
			rec := do(t, s, http.MethodPost, "/api/ask", tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" {
				resp := decode[errorResponse](t, rec)
				if resp.Kind != tt.wantKind {
					t.Errorf("kind = %q, want %q", resp.Kind, tt.wantKind)
				}
				return
			}
			if tt.check != nil {
				tt.check(t, tt.svc, decode[askResponse](t, rec))
			}
		})
	}
}

func TestChecklist(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/api/checklist?entity=sole-proprietorship&jurisdiction=federal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[features.Checklist](t, rec)
	want := features.GenerateChecklist(features.SoleProprietorship, features.Federal)
	if got.EntityType != features.SoleProprietorship || len(got.Items) != len(want.Items) {
		t.Errorf("got %+v, want %d items", got, len(want.Items))
	}

	if rec := do(t, s, http.MethodGet, "/api/checklist?entity=trust", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown entity: status = %d, want 400", rec.Code)
	}
}

func TestDeadlines_Filter(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/api/deadlines?jurisdiction=california", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decode[struct {
		Deadlines []features.TaxDeadline `json:"deadlines"`
	}](t, rec)

	want := features.FilterDeadlines(features.Deadlines(2025), features.California, features.AllEntities)
	if len(resp.Deadlines) != len(want) {
		t.Fatalf("got %d deadlines, want %d", len(resp.Deadlines), len(want))
	}
	for _, d := range resp.Deadlines {
		if d.Jurisdiction != features.California {
			t.Errorf("deadline %s has jurisdiction %s", d.ID, d.Jurisdiction)
		}
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		text string
		want int
	}{
		{"Form 1099 income was omitted.", http.StatusOK},
		{"   ", http.StatusBadRequest},
		{"please error_trigger now", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodPost, "/api/documents/analyze", analyzeRequest{Text: tt.text})
		if rec.Code != tt.want {
			t.Errorf("%q: status = %d, want %d", tt.text, rec.Code, tt.want)
		}
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/render", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got allow origin %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, nil, func(c *config.Config) {
		c.Server.RateLimit = 1
		c.Server.Burst = 2
	})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(t, s, http.MethodGet, "/health", nil).Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", codes[2])
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("10.0.0.1") || rl.Allow("10.0.0.1") {
		t.Error("first client should get exactly one request")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client should have its own bucket")
	}

	unlimited := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow("10.0.0.1") {
			t.Fatal("zero rate should disable limiting")
		}
	}
}

func TestRateLimiter_KeepsNewClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	for i := 0; i < 3; i++ {
		ip := fmt.Sprintf("10.0.1.%d", i)
		if !rl.allowAt(ip, now) {
			t.Fatalf("first request from %s rejected", ip)
		}
		if rl.allowAt(ip, now) {
			t.Errorf("second request from %s allowed; its bucket was dropped", ip)
		}
	}
	if got := len(rl.visitors); got != 3 {
		t.Errorf("tracked clients = %d, want 3", got)
	}
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	start := time.Now()
	rl.allowAt("10.0.0.1", start)
	rl.allowAt("10.0.0.2", start.Add(rl.ttl/2))

	rl.allowAt("10.0.0.3", start.Add(rl.ttl+time.Second))
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("idle client was not forgotten")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Error("recent client was forgotten")
	}
	if _, ok := rl.visitors["10.0.0.3"]; !ok {
		t.Error("new client was not tracked")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.5:4000", "", "203.0.113.5"},
		{"untrusted peer ignores header", "203.0.113.5:4000", "198.51.100.7", "203.0.113.5"},
		{"trusted proxy", "10.1.2.3:4000", "198.51.100.7, 10.1.2.3", "198.51.100.7"},
		{"trusted proxy bad header", "127.0.0.1:4000", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// WEBSOCKET CHAT
// =============================================================================

func dialChat(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f ServerFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func sendFrame(t *testing.T, conn *websocket.Conn, f ClientFrame) {
	t.Helper()
	if err := conn.WriteJSON(f); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestChat_StreamsTurn(t *testing.T) {
	refs := []model.Reference{{Title: "IRS Pub 15", URI: "https://irs.gov/pub15"}}
	svc := &upstreamtest.Scripted{Fragments: []string{"Hello ", "**world**"}, Refs: refs, RefsFrom: 1}
	conn := dialChat(t, newTestServer(t, svc, nil), "")

	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "  greet me  ", Search: true})

	turn := readFrame(t, conn)
	if turn.Type != FrameTurn || turn.Prompt != "greet me" || turn.MessageID == "" {
		t.Fatalf("unexpected turn frame %+v", turn)
	}

	first := readFrame(t, conn)
	if first.Type != FrameFragment || first.Text != "Hello " || first.Final {
		t.Errorf("unexpected first fragment %+v", first)
	}
	second := readFrame(t, conn)
	if second.HTML != "<p>Hello <strong>world</strong></p>" {
		t.Errorf("html = %q", second.HTML)
	}
	final := readFrame(t, conn)
	if !final.Final || final.MessageID != turn.MessageID {
		t.Errorf("unexpected final fragment %+v", final)
	}
	if len(final.References) != 1 || final.References[0].URI != refs[0].URI {
		t.Errorf("references = %v", final.References)
	}

	// The next turn sends the completed one as history.
	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "again"})
	for f := readFrame(t, conn); !f.Final; f = readFrame(t, conn) {
	}
	calls := svc.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if !calls[0].Opts.UseSearchGrounding {
		t.Error("search grounding not requested")
	}
	if len(calls[1].Prior) != 2 || calls[1].Prior[1].Text != "Hello **world**" {
		t.Errorf("prior = %+v", calls[1].Prior)
	}
}

func TestChat_MissingKey(t *testing.T) {
	conn := dialChat(t, newTestServer(t, nil, nil), "")

	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "hi"})
	if f := readFrame(t, conn); f.Type != FrameTurn {
		t.Fatalf("want turn frame, got %+v", f)
	}
	f := readFrame(t, conn)
	if f.Type != FrameError || f.Kind != "configuration" {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestChat_StreamFailure(t *testing.T) {
	svc := &upstreamtest.Scripted{Fragments: []string{"partial", "never"}, FailAfter: 1}
	conn := dialChat(t, newTestServer(t, svc, nil), "?feature=app-explanation")

	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "how do I use this?"})
	readFrame(t, conn) // turn
	if f := readFrame(t, conn); f.Text != "partial" {
		t.Fatalf("want partial fragment, got %+v", f)
	}
	f := readFrame(t, conn)
	if f.Type != FrameError || !strings.HasPrefix(f.Message, "Gemini API request failed") {
		t.Errorf("unexpected frame %+v", f)
	}
	if got := svc.Calls()[0].Opts.CustomInstruction; got != features.Instruction(features.AppExplanationAssistant) {
		t.Errorf("instruction = %q", got)
	}

	// The failed reply is dropped; the question stays in the history.
	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "retry"})
	for f := readFrame(t, conn); f.Type != FrameError; f = readFrame(t, conn) {
	}
	prior := svc.Calls()[1].Prior
	if len(prior) != 1 || prior[0].Role != "user" || prior[0].Text != "how do I use this?" {
		t.Errorf("prior = %+v, want only the failed question", prior)
	}
}

func TestChat_ValidationAndReset(t *testing.T) {
	svc := &upstreamtest.Scripted{Fragments: []string{"ok"}}
	conn := dialChat(t, newTestServer(t, svc, nil), "")

	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "   "})
	if f := readFrame(t, conn); f.Type != FrameError || f.Kind != "validation" {
		t.Errorf("empty prompt: got %+v", f)
	}

	sendFrame(t, conn, ClientFrame{Type: "bogus"})
	if f := readFrame(t, conn); f.Type != FrameError {
		t.Errorf("unknown frame: got %+v", f)
	}

	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "first"})
	for f := readFrame(t, conn); !f.Final; f = readFrame(t, conn) {
	}
	sendFrame(t, conn, ClientFrame{Type: FrameReset})
	if f := readFrame(t, conn); f.Type != FrameCleared {
		t.Errorf("reset: got %+v", f)
	}
	sendFrame(t, conn, ClientFrame{Type: FramePrompt, Text: "second"})
	for f := readFrame(t, conn); !f.Final; f = readFrame(t, conn) {
	}
	if prior := svc.Calls()[1].Prior; len(prior) != 0 {
		t.Errorf("prior after reset = %+v", prior)
	}
}

func TestChat_RejectsFeatureAndOrigin(t *testing.T) {
	s := newTestServer(t, &upstreamtest.Scripted{}, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	base := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?feature=checklist", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-chat feature should be rejected with 400, got %v", resp)
	}

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err = websocket.DefaultDialer.Dial(base, header)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin should be rejected with 403, got %v", resp)
	}
}
