package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"emotlink/internal/app"
	"emotlink/pkg/ai"
	"emotlink/pkg/auth"
	"emotlink/pkg/domain"
	"emotlink/pkg/store"
	"emotlink/pkg/transcript"
	"emotlink/pkg/verify"
)

type fakeGateway struct {
	turns     []ai.Turn
	synthText string
}

func (f *fakeGateway) DialogueTurn(ctx context.Context, systemPrompt, userPrompt string, choice ai.ModelChoice) ai.Turn {
	if len(f.turns) == 0 {
		return ai.Turn{Response: "더 이야기해 주세요."}
	}
	turn := f.turns[0]
	f.turns = f.turns[1:]
	return turn
}

func (f *fakeGateway) Synthesize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.synthText, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f.transcript, f.err
}

type testEnv struct {
	srv      *httptest.Server
	gateway  *fakeGateway
	verifier *verify.Store
	mem      *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	m := miniredis.RunT(t)
	mem := store.NewMemoryStore()
	gw := &fakeGateway{synthText: "제목: 하루\n내용:\n본문.\n감정: 기쁨\n--- 감정 점수 분석 ---\n우울감: 10\n소외감: 10\n좌절감: 10"}
	verifier := verify.NewStore(m.Addr(), "", verify.DefaultTTL)

	a, err := app.New(app.Config{
		Store:       mem,
		Transcripts: transcript.NewStore(m.Addr(), "", transcript.DefaultTTL),
		Gateway:     gw,
		Verifier:    verifier,
	})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	sessions, err := auth.NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	s := New(Config{
		App:           a,
		Sessions:      sessions,
		Verifier:      verifier,
		Sender:        verify.LogSender{},
		Transcriber:   &fakeTranscriber{transcript: "오늘은 좋은 하루였어요"},
		PublicBaseURL: "http://localhost:8080",
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, gateway: gw, verifier: verifier, mem: mem}
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return e.doJSON(t, http.MethodPost, path, token, body)
}

func (e *testEnv) getJSON(t *testing.T, path, token string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	return e.doJSON(t, http.MethodGet, path, token, nil)
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var fields map[string]json.RawMessage
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &fields); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, fields
}

// signup registers a verified account and returns a session token.
func (e *testEnv) signup(t *testing.T, id, email string, accountType domain.AccountType) string {
	t.Helper()
	ctx := context.Background()
	verifyToken, err := e.verifier.Request(ctx, email)
	if err != nil {
		t.Fatalf("verifier.Request: %v", err)
	}
	if _, _, err := e.verifier.Confirm(ctx, verifyToken); err != nil {
		t.Fatalf("verifier.Confirm: %v", err)
	}

	resp, _ := e.postJSON(t, "/api/auth/signup", "", map[string]any{
		"id": id, "name": id, "email": email,
		"password": "hunter2hunter2", "passwordConfirm": "hunter2hunter2",
		"birthday": "1990-01-02", "accountType": int(accountType),
		"verificationToken": verifyToken,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}

	resp, fields := e.postJSON(t, "/api/auth/login", "", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(fields["token"], &token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return token
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	resp, fields := e.getJSON(t, "/api/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil || id != "alice01" {
		t.Errorf("me id = %q, %v", id, err)
	}

	resp, _ = e.getJSON(t, "/api/me", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token status = %d", resp.StatusCode)
	}
	resp, _ = e.getJSON(t, "/api/me", "garbage")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", resp.StatusCode)
	}

	resp, _ = e.postJSON(t, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", resp.StatusCode)
	}
}

func TestSignupRequiresVerification(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.postJSON(t, "/api/auth/signup", "", map[string]any{
		"id": "alice01", "name": "alice", "email": "alice@example.com",
		"password": "hunter2hunter2", "passwordConfirm": "hunter2hunter2",
		"birthday": "1990-01-02", "accountType": 0,
		"verificationToken": "forged",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unverified signup status = %d", resp.StatusCode)
	}
}

func TestEmailVerificationEndpoints(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.postJSON(t, "/api/email/request", "", map[string]string{"email": "dana@example.com"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request status = %d", resp.StatusCode)
	}

	// the token travels by mail; fetch it from the cache directly
	token, err := e.verifier.Request(context.Background(), "dana@example.com")
	if err != nil {
		t.Fatalf("verifier.Request: %v", err)
	}
	resp, fields := e.getJSON(t, "/api/email/verify?token="+token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", resp.StatusCode)
	}
	var email string
	if err := json.Unmarshal(fields["email"], &email); err != nil || email != "dana@example.com" {
		t.Errorf("verified email = %q, %v", email, err)
	}

	resp, _ = e.getJSON(t, "/api/email/verify?token=bogus", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus token status = %d", resp.StatusCode)
	}
}

func TestChatFlow(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	resp, fields := e.postJSON(t, "/chat/start", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	var roomID string
	if err := json.Unmarshal(fields["room_id"], &roomID); err != nil || roomID == "" {
		t.Fatalf("room_id = %q, %v", roomID, err)
	}

	resp, fields = e.postJSON(t, "/chat/message", token, map[string]string{
		"room_id": roomID, "message": "오늘 하루가 길었어요",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("message status = %d", resp.StatusCode)
	}
	var finished bool
	if err := json.Unmarshal(fields["finished"], &finished); err != nil || finished {
		t.Errorf("finished = %v, %v", finished, err)
	}

	// another emoter cannot post into the room
	intruder := e.signup(t, "eve0001", "eve@example.com", domain.AccountEmoter)
	resp, _ = e.postJSON(t, "/chat/message", intruder, map[string]string{
		"room_id": roomID, "message": "끼어들기",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("intruder status = %d", resp.StatusCode)
	}

	// a linker cannot chat at all
	lkToken := e.signup(t, "bob0001", "bob@example.com", domain.AccountLinker)
	resp, _ = e.postJSON(t, "/chat/start", lkToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("linker start status = %d", resp.StatusCode)
	}

	resp, _ = e.postJSON(t, "/chat/message", token, map[string]string{
		"room_id": "missing-room", "message": "안녕",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing room status = %d", resp.StatusCode)
	}
}

func TestDiaryAndStatsEndpoints(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	resp, _ := e.postJSON(t, "/api/diary", token, map[string]string{
		"title": "첫 일기", "content": "내용입니다", "emotion": "😢",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("diary save status = %d", resp.StatusCode)
	}
	resp, _ = e.postJSON(t, "/api/diary", token, map[string]string{
		"title": "둘째 일기", "content": "내용입니다",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("second save status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/api/diary/entries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	defer listResp.Body.Close()
	var entries []domain.DiaryEntry
	if err := json.NewDecoder(listResp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Title != "둘째 일기" {
		t.Errorf("newest first violated: %q", entries[0].Title)
	}
	if entries[1].Emotion != "😢" || entries[0].Emotion != "😊" {
		t.Errorf("emotions = %q, %q", entries[1].Emotion, entries[0].Emotion)
	}

	resp, fields := e.getJSON(t, "/api/stats", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var total int
	if err := json.Unmarshal(fields["total_entries"], &total); err != nil || total != 2 {
		t.Errorf("total_entries = %d, %v", total, err)
	}

	resp, fields = e.getJSON(t, "/api/stats/health", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var color string
	if err := json.Unmarshal(fields["color"], &color); err != nil || color != "green" {
		t.Errorf("color = %q, %v", color, err)
	}
}

func TestLinkEndpoints(t *testing.T) {
	e := newTestEnv(t)
	emToken := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)
	lkToken := e.signup(t, "bob0001", "bob@example.com", domain.AccountLinker)

	resp, _ := e.postJSON(t, "/api/links", lkToken, map[string]string{"emoter": "alice01"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add link status = %d", resp.StatusCode)
	}

	// stats gated until the emoter accepts
	resp, _ = e.getJSON(t, "/api/links/emoters/alice01/stats", lkToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("pending stats status = %d", resp.StatusCode)
	}

	resp, _ = e.getJSON(t, "/api/links/requests", emToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("requests status = %d", resp.StatusCode)
	}

	resp, _ = e.postJSON(t, "/api/links/respond", emToken, map[string]string{
		"linkerId": "bob0001", "action": "accept",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("respond status = %d", resp.StatusCode)
	}

	resp, fields := e.getJSON(t, "/api/links/emoters/alice01/stats", lkToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accepted stats status = %d", resp.StatusCode)
	}
	if _, ok := fields["stats"]; !ok {
		t.Error("response missing stats")
	}
	if _, ok := fields["health"]; !ok {
		t.Error("response missing health")
	}

	// an emoter cannot use linker endpoints
	resp, _ = e.postJSON(t, "/api/links", emToken, map[string]string{"emoter": "bob0001"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("emoter add link status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, e.srv.URL+"/api/links", strings.NewReader(`{"emoterId":"alice01"}`))
	req.Header.Set("Authorization", "Bearer "+lkToken)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete link: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusOK {
		t.Errorf("delete status = %d", delResp.StatusCode)
	}
	if e.mem.LinkCount() != 0 {
		t.Errorf("link rows = %d", e.mem.LinkCount())
	}
}

func TestTranscribeEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", "recording.webm")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("fake-opus-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/chat/transcribe", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transcribe status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["transcript"] != "오늘은 좋은 하루였어요" {
		t.Errorf("transcript = %q", body["transcript"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	paths := []string{"/chat/start", "/api/diary", "/api/account/delete"}
	for _, path := range paths {
		req, _ := http.NewRequest(http.MethodPut, e.srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("PUT %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestAccountDeleteEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "alice01", "alice@example.com", domain.AccountEmoter)

	resp, _ := e.postJSON(t, "/api/diary", token, map[string]string{
		"title": "삭제될 일기", "content": "내용",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("diary save status = %d", resp.StatusCode)
	}

	resp, _ = e.postJSON(t, "/api/account/delete", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	entries, err := e.mem.ListDiaryEntries("alice01")
	if err != nil {
		t.Fatalf("ListDiaryEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries survived: %d", len(entries))
	}
	if _, found, _ := e.mem.GetUserByID("alice01"); found {
		t.Error("user row survived")
	}
}
