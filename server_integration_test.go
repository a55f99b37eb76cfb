package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"medscan/config"
	"medscan/pkg/match"
	"medscan/pkg/ocr"
	"medscan/pkg/scan"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set MEDSCAN_DB_TEST=1 and MEDSCAN_DATABASE_DSN to run them.
	if os.Getenv("MEDSCAN_DB_TEST") != "1" {
		t.Skip("integration tests are disabled; set MEDSCAN_DB_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	var err error
	cfg, err = config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	jwtSecret = []byte("test-secret")
	initDB(cfg)
	engine := match.NewEngine(NewCatalogStore(db), match.Config{
		BrandThreshold:        cfg.Match.BrandThreshold,
		GenericThreshold:      cfg.Match.GenericThreshold,
		ManufacturerThreshold: cfg.Match.ManufacturerThreshold,
		ManufacturerWeight:    cfg.Match.ManufacturerWeight,
		FuzzyThreshold:        cfg.Match.FuzzyThreshold,
		FuzzyPageSize:         cfg.Match.FuzzyPageSize,
		KeepBest:              cfg.Match.KeepBest,
	})
	scanSvc = scan.NewService(engine, ocr.NewTesseractEngine(cfg.OCR.Language))
	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Health check is public
	resp := performRequest(r, http.MethodGet, "/health", nil, "", "")
	if resp.Code != 200 {
		t.Fatalf("health failed status=%d", resp.Code)
	}

	// 2. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass12"})
	resp = performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 3. Login as plain user
	loginBody, _ := json.Marshal(map[string]string{"username": "user1", "password": "pass12"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	userToken, _ := loginResp["token"].(string)
	if userToken == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 4. Login as seeded admin
	adminBody, _ := json.Marshal(map[string]string{"username": "admin", "password": "admin123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(adminBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("admin login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	adminToken, _ := loginResp["token"].(string)

	// 5. Plain user cannot create medicines
	medBody, _ := json.Marshal(map[string]string{
		"brand_name": "Napa", "generic_name": "Paracetamol",
		"strength": "500mg", "manufacturer": "Beximco Pharmaceuticals Ltd",
		"barcode": "8901234567",
	})
	resp = performRequest(r, http.MethodPost, "/medicines", bytes.NewBuffer(medBody), userToken, "application/json")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create got %d", resp.Code)
	}

	// 6. Admin creates a medicine
	resp = performRequest(r, http.MethodPost, "/medicines", bytes.NewBuffer(medBody), adminToken, "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("create medicine failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 7. List and search as plain user
	resp = performRequest(r, http.MethodGet, "/medicines", nil, userToken, "")
	if resp.Code != 200 {
		t.Fatalf("list medicines failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	searchBody, _ := json.Marshal(map[string]any{"query": "napa"})
	resp = performRequest(r, http.MethodPost, "/medicines/search", bytes.NewBuffer(searchBody), userToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("text search failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Fuzzy search hits the full pipeline
	fuzzyBody, _ := json.Marshal(map[string]any{"query": "NAPA 500MG BEXIMCO 8901234567"})
	resp = performRequest(r, http.MethodPost, "/medicines/search/fuzzy", bytes.NewBuffer(fuzzyBody), userToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("fuzzy search failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var fuzzyResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &fuzzyResp)
	if _, ok := fuzzyResp["results"]; !ok {
		t.Fatalf("fuzzy response missing results: %+v", fuzzyResp)
	}

	// 9. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/medicines", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("MEDSCAN_DB_TEST") != "1" {
		t.Skip("integration tests are disabled; set MEDSCAN_DB_TEST=1 to enable")
	}
	c, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	initDB(c)
}
