package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

const (
	PostgresUser   = "postgres"
	PostgresDBName = "fittrack"
)

type Postgres struct {
	Pool *pgxpool.Pool
	Port string
}

// StartPostgres runs a throwaway postgres container and connects to it.
// The container and the pool are removed when the test finishes.
func StartPostgres(ctx context.Context, t testing.TB) *Postgres {
	t.Helper()

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err, "create dockertest pool")
	require.NoError(t, dockerPool.Client.Ping(), "ping docker")

	resource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=" + PostgresUser,
			"POSTGRES_DB=" + PostgresDBName,
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err, "run postgres")
	t.Cleanup(func() {
		if err := resource.Close(); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	port := resource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://%s@localhost:%s/%s?sslmode=disable", PostgresUser, port, PostgresDBName)

	// wait with database/sql until the server accepts connections
	require.NoError(t, dockerPool.Retry(func() error {
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		return sqlDB.PingContext(ctx)
	}), "connect to postgres")

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "create pgx pool")
	t.Cleanup(pool.Close)

	return &Postgres{
		Pool: pool,
		Port: port,
	}
}
