package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"exports/ledger-2024-05.csv", "exports/ledger-2024-05.csv", false},
		{"/exports/a.csv", "exports/a.csv", false},
		{"", "", true},
		{"   ", "", true},
		{"../etc/passwd", "", true},
		{"exports/../../x", "", true},
		{"exports//a.csv", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalObjectStorage(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "exports")
	s, err := NewLocalObjectStorage(root)
	require.NoError(t, err)
	assert.DirExists(t, root)

	obj, err := s.Put(ctx, "ledger/2024-05/transactions.csv", []byte("id,amount\n"), "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "ledger/2024-05/transactions.csv", obj.Key)
	assert.Equal(t, int64(10), obj.Size)
	assert.True(t, strings.HasPrefix(obj.Location, s.Root()))

	content, err := os.ReadFile(obj.Location)
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n", string(content))

	exists, err := s.Exists(ctx, obj.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(ctx, "ledger/missing.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	t.Run("overwrite replaces content", func(t *testing.T) {
		_, err := s.Put(ctx, obj.Key, []byte("v2"), "text/csv")
		require.NoError(t, err)
		content, err := os.ReadFile(obj.Location)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(content))

		leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(obj.Location), ".upload-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("traversal is rejected", func(t *testing.T) {
		_, err := s.Put(ctx, "../outside.csv", []byte("x"), "text/csv")
		assert.ErrorIs(t, err, ErrInvalidKey)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "outside.csv"))
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Put(cctx, "ledger/cancelled.csv", []byte("x"), "text/csv")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewLocalObjectStorage_RequiresDir(t *testing.T) {
	_, err := NewLocalObjectStorage("")
	assert.Error(t, err)
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{S3AccessKey: "k", S3SecretKey: "s"})
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("half a key pair", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{S3Bucket: "b", S3AccessKey: "k"})
		assert.ErrorContains(t, err, "must be set together")
	})

	t.Run("bad endpoint", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{S3Bucket: "b", S3Endpoint: "http://"})
		assert.ErrorContains(t, err, "invalid storage endpoint")
	})
}

func TestS3ObjectStorage_DownloadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{
		S3Bucket:       "ledger-exports",
		S3AccessKey:    "test-key",
		S3SecretKey:    "test-secret",
		S3Endpoint:     "http://localhost:9000",
		S3UsePathStyle: true,
	}, WithPresignExpiration(time.Hour), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, "ledger-exports", s.Bucket())
	assert.Equal(t, time.Hour, s.presignExpiration)

	u, err := s.DownloadURL(context.Background(), "ledger/2024-05/transactions.csv")
	require.NoError(t, err)
	assert.Contains(t, u, "localhost:9000/ledger-exports/ledger/2024-05/transactions.csv")
	assert.Contains(t, u, "X-Amz-Expires=3600")

	_, err = s.DownloadURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNormalizeEndpoint(t *testing.T) {
	got, err := normalizeEndpoint("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = normalizeEndpoint("minio.internal:9000")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.internal:9000", got)

	got, err = normalizeEndpoint("http://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", got)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, &config.StorageConfig{Type: TypeLocal, LocalDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalObjectStorage{}, s)

	_, err = New(ctx, &config.StorageConfig{Type: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported storage type")

	_, err = New(ctx, nil, zap.NewNop())
	assert.Error(t, err)
}
