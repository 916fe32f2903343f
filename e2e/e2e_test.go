//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"cepas/internal/config"
	"cepas/internal/db"
	"cepas/internal/domain/access"
	familydomain "cepas/internal/domain/family"
	interviewdomain "cepas/internal/domain/interview"
	recordsdomain "cepas/internal/domain/records"
	userdomain "cepas/internal/domain/user"
	familyrepo "cepas/internal/repository/postgres/family"
	interviewrepo "cepas/internal/repository/postgres/interview"
	recordsrepo "cepas/internal/repository/postgres/records"
	userrepo "cepas/internal/repository/postgres/user"
	"cepas/internal/transport/httpserver"
	"cepas/internal/transport/httpserver/handler"
	authhandler "cepas/internal/transport/httpserver/handler/auth"
	"cepas/internal/transport/httpserver/handler/common"
	familieshandler "cepas/internal/transport/httpserver/handler/families"
	interviewshandler "cepas/internal/transport/httpserver/handler/interviews"
	recordshandler "cepas/internal/transport/httpserver/handler/records"
	"cepas/pkg/logger"
	"gorm.io/gorm"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-e2e-pass"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	client *http.Client
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.Nop()
	cfg := config.Config{
		DB: config.DBConfig{DSN: dsn},
		Auth: config.AuthConfig{
			JWTSecret:         "e2e-secret",
			AccessTTL:         time.Minute,
			RefreshTTL:        time.Hour,
			MaxFailedAttempts: 5,
			LockDuration:      time.Minute,
			LoginRateRPS:      100,
			LoginRateBurst:    100,
		},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	families := familydomain.NewService(familyrepo.NewPostgres(dbConn))
	interviews := interviewdomain.NewService(interviewrepo.NewPostgres(dbConn))
	records := recordsdomain.NewService(recordsrepo.NewPostgres(dbConn))
	users := userdomain.NewService(userrepo.NewPostgres(dbConn), userdomain.Config{
		JWTSecret:         cfg.Auth.JWTSecret,
		AccessTTL:         cfg.Auth.AccessTTL,
		RefreshTTL:        cfg.Auth.RefreshTTL,
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockDuration:      cfg.Auth.LockDuration,
	}, log)
	if _, err := users.EnsureBootstrapAdmin(context.Background(), adminUsername, adminPassword); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	handlers := handler.New(
		common.New(sqlDB, log),
		authhandler.New(users, log),
		familieshandler.New(families, log),
		interviewshandler.New(interviews, families, log),
		recordshandler.New(records, log),
	)
	router := httpserver.NewRouter(cfg, httpserver.Dependencies{
		Handlers:      handlers,
		Authenticator: users,
		Policy:        access.DefaultPolicy(),
	}, log)

	return &testEnv{
		server: httptest.NewServer(router),
		db:     dbConn,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE log_sistema, refresh_token, usuario, entrevista_monitor, entrevista, crianca_cepas, " +
			"saude_membro, membro, recurso_saneamento, estrutura_habitacao, animal, endereco, familia, area, monitor " +
			"RESTART IDENTITY CASCADE",
	).Error
}

func (e *testEnv) request(t *testing.T, method, path, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, respBody
}

func (e *testEnv) expect(t *testing.T, status int, method, path, token string, payload, dst interface{}) {
	t.Helper()
	resp, body := e.request(t, method, path, token, payload)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, resp.StatusCode, string(body))
	}
	if dst != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (e *testEnv) login(t *testing.T, username, password string) tokenPair {
	t.Helper()
	var pair tokenPair
	e.expect(t, http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	return pair
}

func TestE2EPingAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	resp, body := env.request(t, http.MethodGet, "/api/ping", "", nil)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "pong" {
		t.Fatalf("expected pong, got %d %q", resp.StatusCode, string(body))
	}

	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/auth/me", "", nil, nil)

	admin := env.login(t, adminUsername, adminPassword)
	env.expect(t, http.StatusCreated, http.MethodPost, "/auth/register", admin.AccessToken, map[string]string{
		"username": "monitora",
		"password": "monitora-pass",
		"name":     "Monitora",
		"role":     "monitor",
	}, nil)

	monitor := env.login(t, "monitora", "monitora-pass")
	env.expect(t, http.StatusForbidden, http.MethodPost, "/auth/register", monitor.AccessToken, map[string]string{
		"username": "outro",
		"password": "outro-pass",
		"name":     "Outro",
		"role":     "admin",
	}, nil)

	var rotated tokenPair
	env.expect(t, http.StatusOK, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": monitor.RefreshToken}, &rotated)
	env.expect(t, http.StatusUnauthorized, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": monitor.RefreshToken}, nil)
	env.expect(t, http.StatusOK, http.MethodPost, "/auth/logout", "", map[string]string{"refreshToken": rotated.RefreshToken}, nil)
	env.expect(t, http.StatusUnauthorized, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": rotated.RefreshToken}, nil)
}

func TestE2EFamilyLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	token := env.login(t, adminUsername, adminPassword).AccessToken

	var monitor struct {
		ID int64 `json:"id"`
	}
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/dados/Monitor", token, map[string]string{
		"nome":  "Bia",
		"email": "bia@cepas.org",
	}, &monitor)

	today := time.Now().UTC()
	var created struct {
		ID     int64                  `json:"id"`
		Family familydomain.Aggregate `json:"family"`
	}
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/familia-completa", token, map[string]interface{}{
		"name": "Silva",
		"members": []map[string]interface{}{
			{"name": "Ana", "relation": "head"},
			{"name": "Leo", "relation": "son", "childProgram": map[string]string{"startDate": "2024-01-10", "shift": "morning"}},
		},
		"interview": map[string]interface{}{
			"date":      today.AddDate(0, 0, -10).Format("2006-01-02"),
			"nextVisit": today.AddDate(0, 0, 3).Format("2006-01-02"),
			"monitorId": monitor.ID,
		},
	}, &created)
	if created.ID == 0 || len(created.Family.Members) != 2 {
		t.Fatalf("unexpected created family: %+v", created)
	}
	leo := created.Family.Members[1]
	if leo.ChildProgram == nil || !leo.ChildProgram.Active {
		t.Fatalf("expected active child program for Leo, got %+v", leo.ChildProgram)
	}
	if created.Family.Animal.ID == 0 || created.Family.Animal.HasAnimal != 0 {
		t.Fatalf("expected animal row with hasAnimal=0, got %+v", created.Family.Animal)
	}

	familyPath := fmt.Sprintf("/api/familia/%d", created.ID)
	var report familydomain.Report
	env.expect(t, http.StatusOK, http.MethodPut, familyPath, token, map[string]interface{}{
		"name":      "Silva",
		"structure": map[string]interface{}{"rooms": 4},
	}, &report)
	if report.Failed() {
		t.Fatalf("unexpected failed sections: %v", report.Sections)
	}

	var list []familydomain.ListItem
	env.expect(t, http.StatusOK, http.MethodGet, "/api/familias", "", nil, &list)
	if len(list) != 1 || list[0].Responsible != "Ana" || list[0].ActiveChildren != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}

	var events []interviewdomain.CalendarEvent
	env.expect(t, http.StatusOK, http.MethodGet, "/api/entrevistas/calendario", token, nil, &events)
	if len(events) != 2 {
		t.Fatalf("expected held and scheduled events, got %+v", events)
	}

	var history []struct {
		ID int64 `json:"id"`
	}
	env.expect(t, http.StatusOK, http.MethodGet, fmt.Sprintf("/api/familias/%d/entrevistas", created.ID), token, nil, &history)
	if len(history) != 1 {
		t.Fatalf("expected one interview, got %d", len(history))
	}
	completePath := fmt.Sprintf("/api/entrevistas/%d/concluir-agendamento", history[0].ID)
	env.expect(t, http.StatusOK, http.MethodPatch, completePath, token, nil, nil)
	env.expect(t, http.StatusBadRequest, http.MethodPatch, completePath, token, nil, nil)

	env.expect(t, http.StatusConflict, http.MethodDelete, fmt.Sprintf("/api/dados/Monitor/%d", monitor.ID), token, nil, nil)

	env.expect(t, http.StatusOK, http.MethodDelete, familyPath, token, nil, &report)
	if report.Failed() {
		t.Fatalf("unexpected failed sections on delete: %v", report.Sections)
	}
	env.expect(t, http.StatusNotFound, http.MethodGet, familyPath, "", nil, nil)

	for _, table := range []string{"membro", "crianca_cepas", "entrevista", "entrevista_monitor", "animal"} {
		var count int64
		if err := env.db.Table(table).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected %s empty after delete, got %d", table, count)
		}
	}
}
