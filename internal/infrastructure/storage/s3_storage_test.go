package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap/zaptest"
)

func testS3Config() *config.StorageConfig {
	return &config.StorageConfig{
		Provider:        "s3",
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3ResourceStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ResourceStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		cfg := testS3Config()
		cfg.Bucket = ""
		_, err := NewS3ResourceStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half configured keys return error", func(t *testing.T) {
		cfg := testS3Config()
		cfg.SecretAccessKey = ""
		_, err := NewS3ResourceStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config creates storage", func(t *testing.T) {
		s, err := NewS3ResourceStorage(testS3Config())
		require.NoError(t, err)
		assert.Equal(t, "test-bucket", s.Bucket())
		assert.Equal(t, 10*time.Minute, s.presignExpiration)
	})

	t.Run("default presign expiration", func(t *testing.T) {
		cfg := testS3Config()
		cfg.PresignExpiry = 0
		s, err := NewS3ResourceStorage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})
}

func TestS3ResourceStorage_Options(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s, err := NewS3ResourceStorage(testS3Config(), WithLogger(logger), WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, logger, s.logger)
	assert.Equal(t, time.Hour, s.presignExpiration)
}

func TestS3ResourceStorage_PresignDownload(t *testing.T) {
	s, err := NewS3ResourceStorage(testS3Config())
	require.NoError(t, err)

	t.Run("generates signed url offline", func(t *testing.T) {
		u, err := s.PresignDownload(context.Background(), "documents/abc/report.pdf", 0)
		require.NoError(t, err)
		assert.Contains(t, u, "localhost:9000/test-bucket/documents/abc/report.pdf")
		assert.Contains(t, u, "X-Amz-Signature")
		assert.Contains(t, u, "X-Amz-Expires=600")
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := s.PresignDownload(context.Background(), "", time.Minute)
		assert.ErrorIs(t, err, errKeyRequired)
	})
}

func TestS3ResourceStorage_KeyValidation(t *testing.T) {
	s, err := NewS3ResourceStorage(testS3Config())
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.Store(ctx, "", strings.NewReader("x"), 1, "text/plain"), errKeyRequired)
	_, _, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, errKeyRequired)
	assert.ErrorIs(t, s.Delete(ctx, ""), errKeyRequired)
}

// ============================================================================
// Integration Tests (require an S3 compatible endpoint)
// ============================================================================

func skipIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "1" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=1 and run MinIO to enable.")
	}
}

func TestIntegration_StoreGetDelete(t *testing.T) {
	skipIntegration(t)

	cfg := testS3Config()
	cfg.AccessKeyID = envOr("S3_ACCESS_KEY", "minioadmin")
	cfg.SecretAccessKey = envOr("S3_SECRET_KEY", "minioadmin")
	cfg.Endpoint = envOr("S3_ENDPOINT", "http://localhost:9000")

	s, err := NewS3ResourceStorage(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	key := "it/" + time.Now().Format("20060102150405") + ".txt"
	body := []byte("hello resource")
	require.NoError(t, s.Store(ctx, key, bytes.NewReader(body), int64(len(body)), "text/plain"))

	rc, obj, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, data)
	assert.Equal(t, "text/plain", obj.ContentType)

	require.NoError(t, s.Delete(ctx, key))
	_, _, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
