package usecase

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"activation-key-service/internal/domain"
	"activation-key-service/migrations"
)

// mockMigrationRepository はテスト用のモック。
type mockMigrationRepository struct {
	appliedMigrations map[string]*domain.Migration
	ensureErr         error
	ensureCalls       int
}

func newMockMigrationRepository() *mockMigrationRepository {
	return &mockMigrationRepository{
		appliedMigrations: make(map[string]*domain.Migration),
	}
}

func (m *mockMigrationRepository) EnsureTable(ctx context.Context) error {
	m.ensureCalls++
	return m.ensureErr
}

func (m *mockMigrationRepository) FindAllApplied(ctx context.Context) ([]*domain.Migration, error) {
	var result []*domain.Migration
	for _, migration := range m.appliedMigrations {
		result = append(result, migration)
	}
	return result, nil
}

func (m *mockMigrationRepository) IsMigrationApplied(ctx context.Context, version string) (bool, error) {
	_, exists := m.appliedMigrations[version]
	return exists, nil
}

func (m *mockMigrationRepository) markApplied(versions ...string) {
	now := time.Now()
	for _, v := range versions {
		m.appliedMigrations[v] = &domain.Migration{
			Version:   v,
			AppliedAt: &now,
			Status:    domain.MigrationStatusApplied,
		}
	}
}

// testMigrations はテスト用のマイグレーションファイル群。
func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"001_create_users.sql":    {Data: []byte("CREATE TABLE users (id INT);")},
		"002_create_posts.sql":    {Data: []byte("CREATE TABLE posts (id INT);")},
		"003_create_comments.sql": {Data: []byte("CREATE TABLE comments (id INT);")},
		"README.md":               {Data: []byte("ignored")},
	}
}

// setupMigrationDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Exec("CREATE TABLE schema_migrations (version VARCHAR(14) PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)").Error; err != nil {
		t.Fatalf("failed to create schema_migrations table: %v", err)
	}
	return db
}

func tableExists(t *testing.T, db *gorm.DB, table string) bool {
	t.Helper()
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count).Error; err != nil {
		t.Fatalf("failed to check table %s: %v", table, err)
	}
	return count == 1
}

func TestMigrationService_ApplyMigrations(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	repo := newMockMigrationRepository()

	service := NewMigrationService(repo, db, testMigrations())

	count, err := service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 migrations applied, got %d", count)
	}
	if repo.ensureCalls != 1 {
		t.Errorf("expected EnsureTable to be called once, got %d", repo.ensureCalls)
	}

	for _, table := range []string{"users", "posts", "comments"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s was not created", table)
		}
	}

	var recorded int64
	if err := db.Table("schema_migrations").Count(&recorded).Error; err != nil {
		t.Fatalf("failed to count schema_migrations: %v", err)
	}
	if recorded != 3 {
		t.Errorf("expected 3 recorded migrations, got %d", recorded)
	}
}

func TestMigrationService_ApplyMigrations_AlreadyApplied(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	repo := newMockMigrationRepository()
	repo.markApplied("001", "002")

	service := NewMigrationService(repo, db, testMigrations())

	count, err := service.ApplyMigrations(ctx)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	// 未適用のマイグレーションのみ実行される
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}
	if tableExists(t, db, "users") {
		t.Error("table users should not be created by an applied migration")
	}
}

func TestMigrationService_ApplyMigrations_Error(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	repo := newMockMigrationRepository()

	files := testMigrations()
	files["004_invalid.sql"] = &fstest.MapFile{Data: []byte("INVALID SQL SYNTAX;")}
	service := NewMigrationService(repo, db, files)

	count, err := service.ApplyMigrations(ctx)
	if !errors.Is(err, domain.ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 migrations applied before failure, got %d", count)
	}
}

func TestMigrationService_ApplyMigrations_InvalidFileName(t *testing.T) {
	repo := newMockMigrationRepository()
	files := fstest.MapFS{"create_users.sql": {Data: []byte("CREATE TABLE users (id INT);")}}
	service := NewMigrationService(repo, setupMigrationDB(t), files)

	_, err := service.ApplyMigrations(context.Background())
	if !errors.Is(err, domain.ErrInvalidMigrationFile) {
		t.Errorf("expected ErrInvalidMigrationFile, got %v", err)
	}
}

func TestMigrationService_GetMigrationStatus(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	repo.markApplied("001")

	service := NewMigrationService(repo, setupMigrationDB(t), testMigrations())

	migrations, err := service.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	// 001はapplied, 002と003はpending
	expected := []struct {
		version string
		applied bool
	}{
		{"001", true},
		{"002", false},
		{"003", false},
	}
	for i, want := range expected {
		got := migrations[i]
		if got.Version != want.version {
			t.Errorf("migrations[%d]: expected version %s, got %s", i, want.version, got.Version)
		}
		if got.IsApplied() != want.applied {
			t.Errorf("migration %s: expected applied=%v, got %s", got.Version, want.applied, got.Status)
		}
	}
}

func TestMigrationService_BundledMigrations(t *testing.T) {
	ctx := context.Background()
	repo := newMockMigrationRepository()
	service := NewMigrationService(repo, setupMigrationDB(t), migrations.FS)

	status, err := service.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(status) == 0 {
		t.Fatal("expected bundled migrations, got none")
	}
	for _, m := range status {
		if m.IsApplied() {
			t.Errorf("migration %s unexpectedly applied", m.Version)
		}
	}
}
