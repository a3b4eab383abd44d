package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *testLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *testLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *testLogger) Error(string, ...any) {}

type fakeMigrator struct {
	upErr     error
	downErr   error
	steps     []int
	downCalls int
}

func (m *fakeMigrator) Up() error { return m.upErr }
func (m *fakeMigrator) Steps(n int) error {
	m.steps = append(m.steps, n)
	return m.downErr
}
func (m *fakeMigrator) Down() error {
	m.downCalls++
	return m.downErr
}
func (m *fakeMigrator) Close() (error, error) { return nil, nil }

type blockingMigrator struct {
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newBlockingMigrator() *blockingMigrator {
	return &blockingMigrator{closeCh: make(chan struct{})}
}

func (m *blockingMigrator) Up() error {
	<-m.closeCh
	return nil
}
func (m *blockingMigrator) Steps(int) error { return m.Up() }
func (m *blockingMigrator) Down() error     { return m.Up() }
func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.closeCh)
	})
	return nil, nil
}

// stubFactories swaps the package seams for the duration of the test.
func stubFactories(t *testing.T, m migrator, initErr error) *string {
	t.Helper()
	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() {
		driverFactory = origDriver
		migratorFactory = origMigrator
	})

	var gotSourceURL string
	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		require.NotEmpty(t, cfg.MigrationsTable)
		return nil, nil
	}
	migratorFactory = func(sourceURL string, _ database.Driver) (migrator, error) {
		gotSourceURL = sourceURL
		if initErr != nil {
			return nil, initErr
		}
		return m, nil
	}
	return &gotSourceURL
}

func TestUp_NilDB(t *testing.T) {
	assert.Error(t, Up(context.Background(), nil, Config{}))
	assert.Error(t, Down(context.Background(), nil, Config{}, 1))
}

func TestUp_ContextAlreadyCancelled_SkipsDriver(t *testing.T) {
	origDriver := driverFactory
	t.Cleanup(func() { driverFactory = origDriver })

	called := atomic.Bool{}
	driverFactory = func(*sql.DB, Config) (database.Driver, error) {
		called.Store(true)
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called.Load())
}

func TestUp_DeadlineExceeded_ClosesMigrator(t *testing.T) {
	block := newBlockingMigrator()
	stubFactories(t, block, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, block.closed.Load())
}

func TestUp_ErrNoChange_ReturnsNil(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	logger := &testLogger{}

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.Contains(t, logger.infos, "No migrations to apply")
}

func TestUp_Success_LogsApplied(t *testing.T) {
	stubFactories(t, &fakeMigrator{}, nil)
	logger := &testLogger{}

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.Contains(t, logger.infos, "Migrations applied successfully")
}

func TestUp_WrapsApplyError(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: errors.New("dirty database")}, nil)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations: up")
}

func TestUp_MigratorInitError(t *testing.T) {
	stubFactories(t, nil, errors.New("boom"))

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations: init")
}

func TestDown_StepsAreNegated(t *testing.T) {
	fake := &fakeMigrator{}
	stubFactories(t, fake, nil)

	require.NoError(t, Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()}, 2))
	assert.Equal(t, []int{-2}, fake.steps)
	assert.Zero(t, fake.downCalls)
}

func TestDown_ZeroStepsRollsBackEverything(t *testing.T) {
	fake := &fakeMigrator{}
	stubFactories(t, fake, nil)

	require.NoError(t, Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()}, 0))
	assert.Empty(t, fake.steps)
	assert.Equal(t, 1, fake.downCalls)
}

func TestUp_BuildsEscapedFileSourceURL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my migrations dir")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	gotSourceURL := stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: dir}))

	parsed, err := url.Parse(*gotSourceURL)
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.ToSlash(abs), parsed.Path)
}
