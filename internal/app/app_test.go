package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/flexledger/config"
	"github.com/guttosm/flexledger/internal/ingestion"
)

// TestInitPostgres_InvalidHost expects ping failure.
func TestInitPostgres_InvalidHost(t *testing.T) {
	cfg := config.Config{Postgres: config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     54329, // unlikely mapped
		User:     "x",
		Password: "y",
		DBName:   "z",
		SSLMode:  "disable",
	}}
	db, err := InitPostgres(cfg)
	if err == nil {
		_ = db.Close()
		t.Fatalf("expected error connecting to invalid DB")
	}
}

func TestInitDatabase_Drivers(t *testing.T) {
	cases := []struct {
		name        string
		driver      string
		wantDialect string
		wantErr     bool
	}{
		{name: "unknown", driver: "mysql", wantErr: true},
		{name: "sqlite", driver: "sqlite", wantDialect: "sqlite3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Config{Store: config.StoreConfig{Driver: tc.driver, SQLitePath: filepath.Join(t.TempDir(), "sub", "ledger.db")}}
			db, dialect, err := InitDatabase(cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for driver %q", tc.driver)
				}
				return
			}
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			defer func() { _ = db.Close() }()
			if dialect != tc.wantDialect {
				t.Fatalf("dialect=%q want %q", dialect, tc.wantDialect)
			}
		})
	}
}

// TestInitializeApp_DBFailure ensures InitializeApp returns error when DB cannot connect.
func TestInitializeApp_DBFailure(t *testing.T) {
	old := databaseOpener
	databaseOpener = func(config.Config) (*sql.DB, string, error) { return nil, "", errors.New("refused") }
	t.Cleanup(func() { databaseOpener = old })

	a, cleanup, err := InitializeApp(context.Background())
	if err == nil || a != nil || cleanup != nil {
		t.Fatalf("expected error from InitializeApp with unreachable DB")
	}
}

func TestInitializeApp_MigrationFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	oldOpen, oldMigrate := databaseOpener, migrator
	databaseOpener = func(config.Config) (*sql.DB, string, error) { return db, "postgres", nil }
	migrator = func(context.Context, *sql.DB, string) error { return errors.New("bad migration") }
	t.Cleanup(func() { databaseOpener, migrator = oldOpen, oldMigrate })

	if _, _, err := InitializeApp(context.Background()); err == nil || !strings.Contains(err.Error(), "bad migration") {
		t.Fatalf("expected migration error, got %v", err)
	}
}

func TestInitializeApp_HappyPath(t *testing.T) {
	// Override opener to return a sqlmock DB that pings successfully
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	// readiness probe pings the store once
	mock.ExpectPing()

	oldOpen, oldMigrate, oldCfg := databaseOpener, migrator, config.AppConfig
	databaseOpener = func(config.Config) (*sql.DB, string, error) { return db, "postgres", nil }
	migrator = func(context.Context, *sql.DB, string) error { return nil }
	config.AppConfig = config.Config{}
	t.Cleanup(func() {
		databaseOpener, migrator, config.AppConfig = oldOpen, oldMigrate, oldCfg
		_ = db.Close()
	})

	a, cleanup, err := InitializeApp(context.Background())
	if err != nil || a == nil || cleanup == nil {
		t.Fatalf("InitializeApp failed: err=%v", err)
	}

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{method: http.MethodGet, path: "/readyz", want: http.StatusOK},
		// no flex credentials configured: the run fails but the server answers
		{method: http.MethodPost, path: "/api/v1/sync", want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s status=%d want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	// Call cleanup and ensure it doesn't panic
	cleanup()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewSyncer_RequiresCredentials(t *testing.T) {
	s := newSyncer(config.Config{}, nil)
	if _, err := s.Sync(context.Background()); err == nil || !strings.Contains(err.Error(), "FLEX_TOKEN") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	cfg := config.Config{Flex: config.FlexConfig{Token: "t", ActivityQueryID: "1"}}
	if _, ok := newSyncer(cfg, nil).(*ingestion.Syncer); !ok {
		t.Fatalf("expected a flex-backed syncer")
	}
}
