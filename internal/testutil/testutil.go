package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Baaaki/blog-platform/internal/config"
	"github.com/Baaaki/blog-platform/internal/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TestDatabase holds an in-memory SQLite database with the real schema.
type TestDatabase struct {
	DB  *gorm.DB
	DSN string
}

// TestRedis holds a miniredis server and a client connected to it.
type TestRedis struct {
	Server *miniredis.Miniredis
	Client *redis.Client
	URL    string
}

// SetupTestDatabase opens a private in-memory SQLite database and migrates
// every model into it. Each call gets its own database, so suites do not
// see each other's rows.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := database.Open("sqlite", dsn, "silent")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	// One connection keeps the in-memory database alive and serialises
	// writers the way SQLite expects.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDatabase{
		DB:  db,
		DSN: dsn,
	}
}

func (td *TestDatabase) Teardown(t *testing.T) {
	sqlDB, err := td.DB.DB()
	if err != nil {
		t.Logf("Warning: Failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

// SetupTestRedis starts miniredis and a go-redis client pointed at it.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	return &TestRedis{
		Server: server,
		Client: redis.NewClient(&redis.Options{Addr: server.Addr()}),
		URL:    fmt.Sprintf("redis://%s", server.Addr()),
	}
}

func (tr *TestRedis) Teardown(t *testing.T) {
	if err := tr.Client.Close(); err != nil {
		t.Logf("Warning: Failed to close redis client: %v", err)
	}
	tr.Server.Close()
}

// CleanDatabase deletes all rows, join tables first.
func CleanDatabase(t *testing.T, db *gorm.DB) {
	t.Helper()

	tables := []string{
		"comments",
		"blog_post_tags",
		"blog_post_categories",
		"blog_posts",
		"tags",
		"categories",
		"users",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("Warning: Failed to clean table %s: %v", table, err)
		}
	}
}

// TestConfig is a configuration for tests that never reads the environment.
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseDriver:       "sqlite",
		Environment:          "test",
		JWTSecret:            "test-access-secret",
		JWTRefreshSecret:     "test-refresh-secret",
		AccessTokenTTL:       5 * time.Minute,
		RefreshTokenTTL:      time.Hour,
		CORSAllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitMaxRequests: 1000,
		RateLimitWindow:      time.Minute,
		DefaultPageSize:      20,
		MaxPageSize:          100,
	}
}
