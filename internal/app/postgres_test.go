package app

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/flexledger/config"
)

var testPostgres = config.PostgresConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}

func stubOpener(t *testing.T, fn func(driver, dsn string) (*sql.DB, error)) {
	t.Helper()
	old := sqlOpener
	sqlOpener = fn
	t.Cleanup(func() { sqlOpener = old })
}

func TestPostgresDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.PostgresConfig
		want string
	}{
		{name: "composed", cfg: testPostgres, want: "postgres://u:p@h:5432/d?sslmode=disable"},
		{name: "explicit url wins", cfg: config.PostgresConfig{URL: "postgres://x@y/z", Host: "ignored"}, want: "postgres://x@y/z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := postgresDSN(tc.cfg); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInitPostgres_OpenError(t *testing.T) {
	stubOpener(t, func(string, string) (*sql.DB, error) {
		return nil, errors.New("open failed")
	})

	if _, err := InitPostgres(config.Config{Postgres: testPostgres}); err == nil {
		t.Fatalf("expected error from InitPostgres when open fails")
	}
}

func TestInitPostgres_PingError(t *testing.T) {
	stubOpener(t, func(string, string) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock new: %v", err)
		}
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()
		return db, nil
	})

	if _, err := InitPostgres(config.Config{Postgres: testPostgres}); err == nil {
		t.Fatalf("expected ping error from InitPostgres")
	}
}

func TestInitPostgres_Success(t *testing.T) {
	var gotDriver, gotDSN string
	stubOpener(t, func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock new: %v", err)
		}
		mock.ExpectPing()
		return db, nil
	})

	db, err := InitPostgres(config.Config{Postgres: testPostgres})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()
	if gotDriver != "postgres" || gotDSN != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Fatalf("unexpected open(%q, %q)", gotDriver, gotDSN)
	}
	if db.Stats().MaxOpenConnections != 8 {
		t.Fatalf("pool not configured: %+v", db.Stats())
	}
}
