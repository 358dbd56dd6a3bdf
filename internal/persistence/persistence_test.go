package persistence

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripflow/console/internal/config"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && sql == r.failOn {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	r.statements = append(r.statements, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func TestRunMigrations(t *testing.T) {
	migrations := fstest.MapFS{
		"002_index.sql":   {Data: []byte("CREATE INDEX b")},
		"001_table.sql":   {Data: []byte("CREATE TABLE a")},
		"README.md":       {Data: []byte("docs")},
		"archive/old.sql": {Data: []byte("DROP TABLE a")},
	}
	db := &recordingExecer{}

	require.NoError(t, RunMigrations(context.Background(), db, migrations, zap.NewNop()))
	assert.Equal(t, []string{"CREATE TABLE a", "CREATE INDEX b"}, db.statements)
}

func TestRunMigrations_Failure(t *testing.T) {
	migrations := fstest.MapFS{"001_table.sql": {Data: []byte("CREATE TABLE a")}}
	err := RunMigrations(context.Background(), &recordingExecer{failOn: "CREATE TABLE a"}, migrations, zap.NewNop())
	assert.ErrorContains(t, err, "001_table.sql")
}

func TestRunMigrations_NoDatabase(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, fstest.MapFS{}, zap.NewNop()))
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)

	assert.NoError(t, r.Ping(context.Background()))

	backend := r.SessionBackend()
	require.NoError(t, backend.Set(context.Background(), "tripflow:console:c-1:token", "raw"))
	assert.True(t, mr.Exists("tripflow:console:c-1:token"))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))

	var missing *Redis
	assert.Error(t, missing.Ping(context.Background()))
}

func TestPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.Pool)
	assert.Error(t, pg.Ping(context.Background()))
	assert.NotPanics(t, pg.Close)
}
