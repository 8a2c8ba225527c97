package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/joseph-ayodele/contracts-parser/internal/common"
)

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []struct {
		backend    string
		wantHealth bool
	}{
		{common.StoreMemory, false},
		{common.StoreSQLite, true},
		{common.StoreRedis, true},
	}
	for _, tc := range cases {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := &common.Config{}
			cfg.Storage.Backend = tc.backend
			cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "contracts.db")
			cfg.Redis.URL = "redis://" + mr.Addr()
			cfg.Redis.KeyPrefix = "t"

			st, err := OpenStore(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			defer st.Close()
			if (st.Health != nil) != tc.wantHealth {
				t.Fatalf("health checker present = %v", st.Health != nil)
			}
			if st.Health != nil {
				if err := st.Health.Ping(ctx); err != nil {
					t.Fatalf("ping: %v", err)
				}
			}
			if _, err := st.Repo.List(ctx, nil); err != nil {
				t.Fatalf("list: %v", err)
			}
		})
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := &common.Config{}
	cfg.Storage.Backend = "cassandra"
	if _, err := OpenStore(context.Background(), cfg, nil); !errors.Is(err, common.ErrConfig) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRedisClientBadURL(t *testing.T) {
	if _, err := NewRedisClient("not a url"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadDotEnvWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("CP_DOTENV_PROBE=found\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)
	t.Setenv("CP_DOTENV_PROBE", "")
	_ = os.Unsetenv("CP_DOTENV_PROBE")

	LoadDotEnv()
	if got := os.Getenv("CP_DOTENV_PROBE"); got != "found" {
		t.Fatalf("CP_DOTENV_PROBE = %q", got)
	}
}
