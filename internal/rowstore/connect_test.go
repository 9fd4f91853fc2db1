package rowstore

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		driverName    string
		dsn           string
		cfg           ConnectionConfig
		wantMaxOpen   int
		expectedError bool
	}{
		{
			name:        "Successful connection with SQLite",
			driverName:  "sqlite3",
			dsn:         ":memory:",
			cfg:         DefaultConnectionConfig(),
			wantMaxOpen: 10,
		},
		{
			name:        "SQLite pool pinned to one connection",
			driverName:  "sqlite3",
			dsn:         ":memory:",
			cfg:         ConnectionConfigFor("sqlite3"),
			wantMaxOpen: 1,
		},
		{
			name:          "Failed connection with invalid DSN",
			driverName:    "sqlite3",
			dsn:           "file::memory:?mode=invalid",
			cfg:           DefaultConnectionConfig(),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Connect(tt.driverName, tt.dsn, tt.cfg)

			if tt.expectedError {
				if err == nil {
					t.Error("Expected error, got none")
				}
				if conn != nil {
					t.Error("Expected nil connection on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer conn.Close()

			if conn.Stats().MaxOpenConnections != tt.wantMaxOpen {
				t.Errorf("Expected MaxOpenConnections to be %d, got %d", tt.wantMaxOpen, conn.Stats().MaxOpenConnections)
			}
			for i := 0; i < 10; i++ {
				rows, err := conn.Query("SELECT 1")
				if err != nil {
					t.Fatalf("Query failed: %v", err)
				}
				rows.Close()
			}
			time.Sleep(50 * time.Millisecond)
			if conn.Stats().Idle > tt.cfg.MaxIdleConns {
				t.Errorf("Expected at most %d idle connections, got %d", tt.cfg.MaxIdleConns, conn.Stats().Idle)
			}
		})
	}
}
