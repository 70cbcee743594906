//go:build integration

// Integration tests for the object store wrapper.  They require Docker and
// are gated behind the "integration" build tag.
package minio_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	mc "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	storeminio "github.com/inventohub/patent-etl/internal/infrastructure/storage/minio"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

const testBucket = "epo-test"

func startStore(t *testing.T) *storeminio.Store {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "test",
			"MINIO_ROOT_PASSWORD": "testsecret",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	endpoint := fmt.Sprintf("%s:%s", host, port.Port())

	admin, err := mc.New(endpoint, &mc.Options{
		Creds: credentials.NewStaticV4("test", "testsecret", ""),
	})
	require.NoError(t, err)
	require.NoError(t, admin.MakeBucket(ctx, testBucket, mc.MakeBucketOptions{}))

	store, err := storeminio.NewStore(config.StoreConfig{
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "testsecret",
		EPOBucket: testBucket,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	key := "2025/epo-xmls/2025_01/doc.xml"
	exists, err := store.Exists(ctx, testBucket, key)
	require.NoError(t, err)
	assert.False(t, exists)

	payload := []byte("<doc id='X' doc-number='1'/>")
	require.NoError(t, store.PutObject(ctx, testBucket, key, payload))

	exists, err = store.Exists(ctx, testBucket, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.GetObjectBytes(ctx, testBucket, key)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestStoreListKeysByPrefix(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"2025/epo-xmls/2025_01/a.xml",
		"2025/epo-xmls/2025_01/b.xml",
		"2025/epo-xmls/2025_02/c.xml",
	} {
		require.NoError(t, store.PutObject(ctx, testBucket, key, []byte("x")))
	}

	keys, err := store.ListKeys(ctx, testBucket, "2025/epo-xmls/2025_01/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestStoreStreamingRoundTrip(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()

	key := "2025/epo-xmls/2025_01/2025_01.parquet"
	payload := bytes.Repeat([]byte("columnar "), 4096)
	require.NoError(t, store.PutObjectStream(ctx, testBucket, key, bytes.NewReader(payload)))

	obj, size, err := store.OpenObject(ctx, testBucket, key)
	require.NoError(t, err)
	defer obj.Close()
	assert.Equal(t, int64(len(payload)), size)

	// Random access near the tail, the pattern parquet readers use to find
	// the footer.
	tail := make([]byte, 9)
	_, err = obj.ReadAt(tail, size-int64(len(tail)))
	require.NoError(t, err)
	assert.Equal(t, payload[len(payload)-9:], tail)
}

func TestStoreOpenObjectMissingKey(t *testing.T) {
	store := startStore(t)

	_, _, err := store.OpenObject(context.Background(), testBucket, "2025/absent.parquet")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestStoreFileTransfer(t *testing.T) {
	store := startStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "archive.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip bytes"), 0o644))
	require.NoError(t, store.UploadFile(ctx, src, testBucket, "2025/zipped/archive.zip"))

	dst := filepath.Join(dir, "copy.zip")
	require.NoError(t, store.DownloadFile(ctx, testBucket, "2025/zipped/archive.zip", dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("zip bytes"), data)
}
