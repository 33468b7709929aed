//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carbontrace/apiserver/config"
	"github.com/carbontrace/apiserver/internal/db"
	"github.com/carbontrace/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestEmissionLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("user_%d", time.Now().UnixNano())
	password := "testpass123!"

	token, err := registerUser(t, baseURL, username, password)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}

	supplierID, err := createSupplier(t, baseURL, token, fmt.Sprintf("Supplier %d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	if supplierID == 0 {
		t.Fatalf("expected supplier ID to be set")
	}

	recordID, err := createEmission(t, baseURL, token, supplierID, "2024-01-01", 10, 0.5, "electricity")
	if err != nil {
		t.Fatalf("create emission: %v", err)
	}
	if _, err := createEmission(t, baseURL, token, supplierID, "2024-01-01", 4, 0.2, "transport"); err != nil {
		t.Fatalf("create emission: %v", err)
	}

	analytics, err := getAnalytics(t, baseURL, token, "2024-01-01", "2024-01-31", "day")
	if err != nil {
		t.Fatalf("get analytics: %v", err)
	}
	if diff := analytics.Statistics.TotalEmissions - 5.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected total emissions: %v", analytics.Statistics.TotalEmissions)
	}
	if analytics.Statistics.ChangePercentage != 0 {
		t.Fatalf("expected zero change percentage with empty previous period, got %v", analytics.Statistics.ChangePercentage)
	}
	if len(analytics.ByCategory) != 2 {
		t.Fatalf("expected two categories, got %d", len(analytics.ByCategory))
	}
	if len(analytics.Trend) != 1 {
		t.Fatalf("expected a single trend bucket, got %d", len(analytics.Trend))
	}

	if err := deleteEmission(t, baseURL, token, recordID); err != nil {
		t.Fatalf("delete emission: %v", err)
	}
	if err := expectEmissionNotFound(t, baseURL, token, recordID); err != nil {
		t.Fatalf("expected deleted emission to be missing: %v", err)
	}
}

type authResponse struct {
	Token string `json:"token"`
}

type idResponse struct {
	ID int `json:"id"`
}

type analyticsResponse struct {
	Statistics struct {
		TotalEmissions   float64 `json:"totalEmissions"`
		ChangePercentage float64 `json:"changePercentage"`
	} `json:"statistics"`
	ByCategory []struct {
		Category  string  `json:"category"`
		Emissions float64 `json:"emissions"`
	} `json:"byCategory"`
	Trend []struct {
		Date      string  `json:"date"`
		Emissions float64 `json:"emissions"`
	} `json:"trend"`
}

func registerUser(t *testing.T, baseURL, username, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/register", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("register status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed authResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in register response")
	}
	return parsed.Token, nil
}

func createSupplier(t *testing.T, baseURL, token, name string) (int, error) {
	t.Helper()

	payload := map[string]string{"name": name}
	parsed, err := postJSON(t, baseURL+"/suppliers", token, payload, http.StatusCreated)
	if err != nil {
		return 0, err
	}
	return parsed.ID, nil
}

func createEmission(t *testing.T, baseURL, token string, supplierID int, date string, amount, co2PerUnit float64, category string) (int, error) {
	t.Helper()

	payload := map[string]any{
		"supplier_id":  supplierID,
		"category":     category,
		"amount":       amount,
		"co2_per_unit": co2PerUnit,
		"occurred_at":  date,
	}
	parsed, err := postJSON(t, baseURL+"/emissions", token, payload, http.StatusCreated)
	if err != nil {
		return 0, err
	}
	return parsed.ID, nil
}

func postJSON(t *testing.T, url, token string, payload any, wantStatus int) (idResponse, error) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		return idResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return idResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return idResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return idResponse{}, fmt.Errorf("post %s status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed idResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return idResponse{}, err
	}
	return parsed, nil
}

func getAnalytics(t *testing.T, baseURL, token, startDate, endDate, timeframe string) (analyticsResponse, error) {
	t.Helper()

	url := fmt.Sprintf("%s/emissions/analytics?start_date=%s&end_date=%s&timeframe=%s", baseURL, startDate, endDate, timeframe)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return analyticsResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return analyticsResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return analyticsResponse{}, fmt.Errorf("analytics status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed analyticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return analyticsResponse{}, err
	}
	return parsed, nil
}

func deleteEmission(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/emissions/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete emission status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectEmissionNotFound(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/emissions/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "carbontrace")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "carbontrace_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "")
	_ = os.Setenv("EVENTS_BACKEND", "")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
