package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/config"
	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/notify"
	"github.com/nailstudio/salon-backend/internal/notify/notifytest"
	"github.com/nailstudio/salon-backend/internal/repo"
)

const adminPassword = "s3cret-pass"

type testServer struct {
	r   *gin.Engine
	app *App
	st  repo.Store
	bot *notifytest.BotAPI
	cfg config.Config
}

func testConfig(t *testing.T, endpoint string) config.Config {
	t.Helper()
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     100,
		RateBurst:   100,
		Uploads: config.UploadConfig{
			Dir:       t.TempDir(),
			URLPrefix: "/uploads",
			MaxBytes:  1 << 20,
		},
		Auth: config.AuthConfig{TokenTTL: time.Hour},
		Notify: config.NotifyConfig{
			APIEndpoint: endpoint,
			Timeout:     2 * time.Second,
			Concurrency: 2,
			Location:    time.UTC,
			Locale:      language.Russian,
		},
		OTEL: config.OTELConfig{ServiceName: "salon-test"},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bot := notifytest.NewBotAPI()
	t.Cleanup(bot.Close)

	cfg := testConfig(t, bot.Endpoint())
	for _, m := range mutate {
		m(&cfg)
	}

	st := repo.NewMemory()
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := repo.Seed(context.Background(), st, domain.DefaultSeed(hash)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tokens, err := auth.NewTokens([]byte("router-test-secret"), cfg.Auth.TokenTTL)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}

	app := NewApp(st, tokens, notify.NewTelegramSender(cfg.Notify.APIEndpoint, cfg.Notify.Timeout), cfg)
	t.Cleanup(app.Booking.Wait)

	r := gin.New()
	RegisterRoutes(r, app, cfg)
	return &testServer{r: r, app: app, st: st, bot: bot, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": adminPassword}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d %s", w.Code, w.Body.String())
	}
	var out struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	decode(t, w, &out)
	if !out.Success || out.Token == "" {
		t.Fatalf("login response %s", w.Body.String())
	}
	return out.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing baseline headers: %v", w.Header())
	}

	w = s.do(t, http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = s.do(t, http.MethodGet, "/nope", nil, "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("GET /nope = %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/health", nil, "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.CORS.AllowedOrigins = []string{"http://salon.example"}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://salon.example")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://salon.example" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin echoed: %q", got)
	}
}

func TestPublicReads_SeededContent(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/settings", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET settings = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "$2a$") || strings.Contains(w.Body.String(), "botToken") {
		t.Fatalf("public settings leak credentials: %s", w.Body.String())
	}

	var svcs []map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/services", nil, ""), &svcs)
	if len(svcs) != 3 {
		t.Fatalf("services = %d; want 3 seeded", len(svcs))
	}

	var blocks []map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/blocks", nil, ""), &blocks)
	if len(blocks) == 0 {
		t.Fatal("expected seeded blocks")
	}
	for _, b := range blocks {
		if b["enabled"] != true {
			t.Fatalf("disabled block on public list: %v", b)
		}
	}
}

func TestPublicReads_Gzip(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, headers %v", w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.Contains(string(body), "1500") {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestBooking_NotifiesSubscriber(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	tok := "123:abc"
	if _, err := s.st.Settings().Update(ctx, domain.SettingsPatch{BotToken: &tok}); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if _, err := s.st.Subscribers().Create(ctx, domain.Subscriber{ChatID: "100"}); err != nil {
		t.Fatalf("subscriber: %v", err)
	}

	w := s.do(t, http.MethodPost, "/api/requests", map[string]string{
		"name":    "Ann",
		"phone":   "+71234567890",
		"service": "Classic Manicure",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST requests = %d %s", w.Code, w.Body.String())
	}
	var created domain.Request
	decode(t, w, &created)
	if created.ID == "" || created.Name != "Ann" || created.Phone != "+71234567890" {
		t.Fatalf("unexpected request %+v", created)
	}

	s.app.Booking.Wait()
	msgs := s.bot.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d; want 1", len(msgs))
	}
	m := msgs[0]
	if m.ChatID != "100" || m.Token != tok {
		t.Fatalf("delivered to %q with %q", m.ChatID, m.Token)
	}
	for _, want := range []string{"Ann", "+71234567890", "Classic Manicure"} {
		if !strings.Contains(m.Text, want) {
			t.Fatalf("message %q missing %q", m.Text, want)
		}
	}
}

func TestBooking_AcceptsLooselyFormattedPhone(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/requests", map[string]string{
		"name":    "Ann",
		"phone":   "+7 (912) 34",
		"service": "other",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST requests = %d %s", w.Code, w.Body.String())
	}
	s.app.Booking.Wait()
	reqs, err := s.st.Requests().List(context.Background())
	if err != nil || len(reqs) != 1 || reqs[0].Phone != "+7 (912) 34" {
		t.Fatalf("requests = %+v (%v)", reqs, err)
	}
}

func TestBooking_InvalidIsNotPersisted(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/requests", map[string]string{
		"name":    "",
		"phone":   "+71234567890",
		"service": "Classic Manicure",
	}, "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("POST requests = %d %s", w.Code, w.Body.String())
	}
	reqs, err := s.st.Requests().List(context.Background())
	if err != nil || len(reqs) != 0 {
		t.Fatalf("requests = %d (%v); want none", len(reqs), err)
	}
}

func TestBooking_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.RateRPS = 0.001
		c.RateBurst = 1
	})
	body := map[string]string{"name": "Ann", "phone": "89501234567", "service": "other"}

	if w := s.do(t, http.MethodPost, "/api/requests", body, ""); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/requests", body, "")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("second = %d headers %v", w.Code, w.Header())
	}
	// Login has its own bucket.
	if w := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": adminPassword}, ""); w.Code != http.StatusOK {
		t.Fatalf("login after booking burst = %d", w.Code)
	}
}

func TestAdmin_WrongPasswordAndMissingToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "nope"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "token") {
		t.Fatalf("token issued on failure: %s", w.Body.String())
	}
	var loginErr map[string]any
	decode(t, w, &loginErr)

	for _, target := range []string{"/api/admin/requests", "/api/admin/settings", "/api/admin/subscribers"} {
		w := s.do(t, http.MethodGet, target, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s = %d", target, w.Code)
		}
		var got map[string]any
		decode(t, w, &got)
		if got["code"] != loginErr["code"] || got["message"] != loginErr["message"] {
			t.Fatalf("GET %s error %v differs from login error %v", target, got, loginErr)
		}
	}

	if w := s.do(t, http.MethodGet, "/api/admin/requests", nil, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d", w.Code)
	}
}

func TestAdmin_TokenGrantsAccess(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodGet, "/api/admin/settings", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("GET admin settings = %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "$2a$") {
		t.Fatalf("hash leaked: %s", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("admin Cache-Control = %q", cc)
	}

	var stats repo.Summary
	decode(t, s.do(t, http.MethodGet, "/api/admin/stats", nil, token), &stats)
	if stats.Services != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestAdmin_PasswordChangeRevokesTokens(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"adminPassword": "another-pass"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings = %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/api/admin/settings", nil, token); w.Code != http.StatusUnauthorized {
		t.Fatalf("old token after password change = %d", w.Code)
	}
}

func TestAdmin_SequentialSettingsUpdatesKeepBothFields(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	if w := s.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"masterName": "Maria"}, token); w.Code != http.StatusOK {
		t.Fatalf("first PUT = %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPut, "/api/admin/settings", map[string]string{"masterPhone": "+7 (900) 000-00-00"}, token); w.Code != http.StatusOK {
		t.Fatalf("second PUT = %d %s", w.Code, w.Body.String())
	}

	var got map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/settings", nil, ""), &got)
	if got["masterName"] != "Maria" || got["masterPhone"] != "+7 (900) 000-00-00" {
		t.Fatalf("settings regressed: %v", got)
	}
}

func TestAdmin_BlockLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/admin/blocks", map[string]any{
		"blockType": "text",
		"title":     "Hello",
		"content":   "World",
		"order":     10,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create block = %d %s", w.Code, w.Body.String())
	}
	var b map[string]any
	decode(t, w, &b)
	id, _ := b["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", b)
	}

	if w := s.do(t, http.MethodPut, "/api/admin/blocks/"+id, map[string]any{"enabled": false}, token); w.Code != http.StatusOK {
		t.Fatalf("update block = %d %s", w.Code, w.Body.String())
	}
	var public []map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/blocks", nil, ""), &public)
	for _, pb := range public {
		if pb["id"] == id {
			t.Fatal("disabled block visible publicly")
		}
	}

	if w := s.do(t, http.MethodDelete, "/api/admin/blocks/"+id, nil, token); w.Code != http.StatusOK {
		t.Fatalf("delete block = %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/api/admin/blocks/"+id, nil, token); w.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d; want 404", w.Code)
	}
}

func TestAdmin_ContactsBlockAcceptsImage(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	var blocks []map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/admin/blocks", nil, token), &blocks)
	var id string
	for _, b := range blocks {
		if b["blockType"] == "contacts" {
			id, _ = b["id"].(string)
		}
	}
	if id == "" {
		t.Fatalf("no seeded contacts block in %v", blocks)
	}

	w := s.do(t, http.MethodPut, "/api/admin/blocks/"+id, map[string]any{"image": "/uploads/map.png"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("update contacts block = %d %s", w.Code, w.Body.String())
	}
	var public []map[string]any
	decode(t, s.do(t, http.MethodGet, "/api/blocks", nil, ""), &public)
	for _, pb := range public {
		if pb["id"] == id && pb["image"] != "/uploads/map.png" {
			t.Fatalf("contacts image = %v", pb["image"])
		}
	}

	w = s.do(t, http.MethodPut, "/api/admin/blocks/"+id, map[string]any{"stats": []map[string]string{{"label": "x"}}}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("stats on contacts block = %d; want 400", w.Code)
	}
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartUpload(t, filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read uploads dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUpload_RejectsTextFile(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.upload(t, token, "notes.txt", "text/plain", []byte("hello"))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "validation_failed") {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}
	imgs, err := s.st.Images().List(context.Background())
	if err != nil || len(imgs) != 0 {
		t.Fatalf("images = %d (%v)", len(imgs), err)
	}
	if files := uploadedFiles(t, s.cfg.Uploads.Dir); len(files) != 0 {
		t.Fatalf("files left behind: %v", files)
	}
}

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestUpload_ServeAndDelete(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.upload(t, token, "nails.png", "image/png", pngBytes)
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d %s", w.Code, w.Body.String())
	}
	var img domain.Image
	decode(t, w, &img)
	if !strings.HasPrefix(img.Path, "/uploads/") || img.OriginalName != "nails.png" || img.Size != int64(len(pngBytes)) {
		t.Fatalf("unexpected image %+v", img)
	}

	w = s.do(t, http.MethodGet, img.Path, nil, "")
	if w.Code != http.StatusOK || !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Fatalf("serve = %d len=%d", w.Code, w.Body.Len())
	}

	w = s.do(t, http.MethodDelete, "/api/admin/delete-upload?path="+img.Path, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("delete-upload = %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodGet, img.Path, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("serve after delete = %d", w.Code)
	}
	imgs, _ := s.st.Images().List(context.Background())
	if len(imgs) != 0 {
		t.Fatalf("image record kept: %+v", imgs)
	}
}

func TestUpload_TraversalRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodDelete, "/api/admin/delete-upload", map[string]string{"path": "/uploads/../secret.txt"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("delete traversal = %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodGet, "/uploads/missing.png", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("serve missing = %d", w.Code)
	}
}

func TestWebhook_StartRegistersSubscriber(t *testing.T) {
	s := newTestServer(t)
	update := map[string]any{
		"update_id": 1,
		"message": map[string]any{
			"message_id": 1,
			"date":       0,
			"chat":       map[string]any{"id": 555, "type": "private"},
			"from":       map[string]any{"id": 555, "is_bot": false, "first_name": "Ann", "username": "ann"},
			"text":       "/start",
			"entities":   []map[string]any{{"type": "bot_command", "offset": 0, "length": 6}},
		},
	}

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/webhook/telegram", update, "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
			t.Fatalf("webhook #%d = %d %s", i, w.Code, w.Body.String())
		}
	}
	subs, err := s.st.Subscribers().List(context.Background())
	if err != nil || len(subs) != 1 || subs[0].ChatID != "555" {
		t.Fatalf("subscribers = %+v (%v)", subs, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/telegram", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON webhook = %d", w.Code)
	}
}

func TestTelegramTest_Preconditions(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/admin/telegram/test", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("without token = %d %s", w.Code, w.Body.String())
	}

	tok := "123:abc"
	if _, err := s.st.Settings().Update(context.Background(), domain.SettingsPatch{BotToken: &tok}); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if w := s.do(t, http.MethodPost, "/api/admin/subscribers", map[string]string{"chatId": "7"}, token); w.Code != http.StatusOK {
		t.Fatalf("add subscriber = %d %s", w.Code, w.Body.String())
	}
	if w := s.do(t, http.MethodPost, "/api/admin/subscribers", map[string]string{"chatId": "7"}, token); w.Code != http.StatusConflict {
		t.Fatalf("duplicate subscriber = %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/admin/telegram/test", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("test = %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
		Total   int  `json:"total"`
	}
	decode(t, w, &res)
	if !res.Success || res.Sent != 1 || res.Total != 1 || len(s.bot.Messages()) != 1 {
		t.Fatalf("test result %+v, messages %d", res, len(s.bot.Messages()))
	}
}

func TestExportRequests_Workbook(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	if w := s.do(t, http.MethodPost, "/api/requests", map[string]string{"name": "Ann", "phone": "89501234567", "service": "consultation"}, ""); w.Code != http.StatusOK {
		t.Fatalf("booking = %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/admin/requests/export", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	// XLSX is a zip archive.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatal("export is not a zip container")
	}
}

func TestGroupWithPrefixAndJoinPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	groupWithPrefix(r, "/p").GET("/y", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, target := range []string{"/x", "/p/y"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("GET %s = %d", target, w.Code)
		}
	}

	cases := map[[2]string]string{
		{"", "/admin/upload"}:     "/admin/upload",
		{"/", "/admin/upload"}:    "/admin/upload",
		{"/api", "/admin/upload"}: "/api/admin/upload",
	}
	for in, want := range cases {
		if got := joinPath(in[0], in[1]); got != want {
			t.Errorf("joinPath(%q, %q) = %q; want %q", in[0], in[1], got, want)
		}
	}
}
