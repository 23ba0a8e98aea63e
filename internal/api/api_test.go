package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rabiehflowers/storefront/internal/auth"
	"github.com/rabiehflowers/storefront/internal/catalog"
	"github.com/rabiehflowers/storefront/internal/domain"
)

// memRepo is an in-memory Repository for handler tests.
type memRepo struct {
	mu       sync.Mutex
	catalog  []domain.Flower
	settings *domain.Settings
}

func (m *memRepo) LoadCatalog(ctx context.Context) ([]domain.Flower, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Flower, len(m.catalog))
	copy(out, m.catalog)
	return out, nil
}

func (m *memRepo) ReplaceCatalog(ctx context.Context, flowers []domain.Flower) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalog = make([]domain.Flower, len(flowers))
	copy(m.catalog, flowers)
	return nil
}

func (m *memRepo) GetSettings(ctx context.Context) (*domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *memRepo) SaveSettings(ctx context.Context, s *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *s
	m.settings = &saved
	return nil
}

func (m *memRepo) Ping(ctx context.Context) error { return nil }
func (m *memRepo) Close() error                   { return nil }

// newTestServer wires the API the way cmd/server does, minus chat.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	repo := &memRepo{}
	ctx := context.Background()
	cat := catalog.NewStore(ctx, repo)
	gate := auth.NewGate(ctx, repo, time.Hour)

	catalogHandler := NewCatalogHandler(cat, 8<<20)
	authHandler := NewAuthHandler(gate, true)

	r := chi.NewRouter()
	catalogHandler.RegisterPublic(r)
	authHandler.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOwner(gate))
		catalogHandler.RegisterOwner(r)
		authHandler.RegisterOwner(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return srv, &http.Client{Jar: jar}
}

func login(t *testing.T, srv *httptest.Server, client *http.Client) {
	t.Helper()

	def := domain.DefaultSettings()
	body, _ := json.Marshal(map[string]string{"email": def.Email, "password": def.Password})
	resp, err := client.Post(srv.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}
}

func listFlowers(t *testing.T, srv *httptest.Server, client *http.Client) ([]domain.Flower, []string) {
	t.Helper()

	resp, err := client.Get(srv.URL + "/api/flowers")
	if err != nil {
		t.Fatalf("GET /api/flowers failed: %v", err)
	}
	defer resp.Body.Close()

	var got struct {
		Flowers    []domain.Flower `json:"flowers"`
		Categories []string        `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode flowers: %v", err)
	}
	return got.Flowers, got.Categories
}

func TestListFlowersReturnsSeedAndCategories(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	flowers, categories := listFlowers(t, srv, client)
	if len(flowers) != 6 {
		t.Fatalf("expected 6 seed flowers, got %d", len(flowers))
	}

	want := []string{"Arrangement", "Bouquet", "Indoor", "Outdoor", "Plants", "Roses"}
	if len(categories) != len(want) {
		t.Fatalf("expected categories %v, got %v", want, categories)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("expected categories %v, got %v", want, categories)
		}
	}
}

func TestOwnerRoutesRequireSession(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	body := `{"name":"Tulip","description":"Fresh","category":"Spring","imageUrl":"u"}`
	resp, err := client.Post(srv.URL+"/api/flowers", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/flowers failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestSaveEditDeleteFlow(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	login(t, srv, client)

	// Create.
	body := `{"name":"Tulip","description":"Fresh","category":"Spring","imageUrl":"data:image/jpeg;base64,AAAA"}`
	resp, err := client.Post(srv.URL+"/api/flowers", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var created domain.Flower
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created flower: %v", err)
	}
	resp.Body.Close()
	if created.ID == "" {
		t.Fatal("expected server-assigned identifier")
	}

	flowers, categories := listFlowers(t, srv, client)
	if len(flowers) != 7 {
		t.Fatalf("expected 7 flowers after create, got %d", len(flowers))
	}
	foundSpring := false
	for _, c := range categories {
		if c == "Spring" {
			foundSpring = true
		}
	}
	if !foundSpring {
		t.Fatalf("expected Spring in categories, got %v", categories)
	}

	// Edit keeps position and identifier.
	created.Description = "Fresh from Holland"
	edited, _ := json.Marshal(created)
	resp, err = client.Post(srv.URL+"/api/flowers", "application/json", bytes.NewReader(edited))
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	resp.Body.Close()

	flowers, _ = listFlowers(t, srv, client)
	if len(flowers) != 7 {
		t.Fatalf("expected edit to not grow catalog, got %d flowers", len(flowers))
	}
	if last := flowers[len(flowers)-1]; last.ID != created.ID || last.Description != "Fresh from Holland" {
		t.Fatalf("expected edited record in place, got %+v", last)
	}

	// Delete.
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/flowers/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", resp.StatusCode)
	}

	// Deleting again is still a success.
	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/flowers/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", resp.StatusCode)
	}

	flowers, _ = listFlowers(t, srv, client)
	if len(flowers) != 6 {
		t.Fatalf("expected 6 flowers after delete, got %d", len(flowers))
	}
}

func TestSaveFlowerValidation(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	login(t, srv, client)

	resp, err := client.Post(srv.URL+"/api/flowers", "application/json",
		strings.NewReader(`{"name":"","description":"d","category":"c","imageUrl":"u"}`))
	if err != nil {
		t.Fatalf("POST /api/flowers failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing name, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": "a@b.com", "password": "secret"})
	resp, err := client.Post(srv.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if got["error"] != "invalid credentials" {
		t.Fatalf("expected invalid credentials message, got %q", got["error"])
	}
}

func TestSessionAndLogout(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)

	session := func() bool {
		resp, err := client.Get(srv.URL + "/api/session")
		if err != nil {
			t.Fatalf("GET /api/session failed: %v", err)
		}
		defer resp.Body.Close()
		var got struct {
			Elevated bool   `json:"elevated"`
			Address  string `json:"address"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		return got.Elevated
	}

	if session() {
		t.Fatal("expected anonymous session")
	}

	login(t, srv, client)
	if !session() {
		t.Fatal("expected elevated session after login")
	}

	resp, err := client.Post(srv.URL+"/api/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	resp.Body.Close()

	if session() {
		t.Fatal("expected session to be cleared after logout")
	}
}

func TestUpdateSettingsRotatesCredentials(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	login(t, srv, client)

	update, _ := json.Marshal(domain.Settings{Email: "owner@shop.com", Password: "rotated", Address: "Beirut"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/settings", bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on settings update, got %d", resp.StatusCode)
	}

	// Old credentials no longer work.
	def := domain.DefaultSettings()
	body, _ := json.Marshal(map[string]string{"email": def.Email, "password": def.Password})
	resp, err = client.Post(srv.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected old credentials to be rejected, got %d", resp.StatusCode)
	}

	// New ones do.
	body, _ = json.Marshal(map[string]string{"email": "owner@shop.com", "password": "rotated"})
	resp, err = client.Post(srv.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected new credentials to be accepted, got %d", resp.StatusCode)
	}
}

func TestGetSettingsOmitsPassword(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	login(t, srv, client)

	resp, err := client.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatalf("GET /api/settings failed: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if _, ok := got["password"]; ok {
		t.Fatal("password must not be echoed")
	}
	if got["email"] != domain.DefaultSettings().Email {
		t.Fatalf("unexpected settings email: %q", got["email"])
	}
}

func TestEncodeImageUpload(t *testing.T) {
	t.Parallel()

	srv, client := newTestServer(t)
	login(t, srv, client)

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 60, A: 255})
		}
	}
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "rose.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBuf.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	resp, err := client.Post(srv.URL+"/api/flowers/image", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/flowers/image failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(got["imageUrl"], "data:image/jpeg;base64,") {
		t.Fatalf("expected a data URL, got %.40q", got["imageUrl"])
	}
}
