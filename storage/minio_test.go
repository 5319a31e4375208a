package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundfolio/config"
)

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 KB", FormatSize(1024))
	assert.Equal(t, "1.5 MB", FormatSize(3*1024*1024/2))
}

func TestObjectRef(t *testing.T) {
	assert.Equal(t, "minio://music/catalog/tracks.json", ObjectRef("music", "/catalog/tracks.json"))
}

func TestNewMinioClient(t *testing.T) {
	_, err := NewMinioClient(&config.Config{})
	require.Error(t, err)

	c, err := NewMinioClient(&config.Config{
		MinioEndpoint:  "localhost:9000",
		MinioAccessKey: "key",
		MinioSecretKey: "secret",
		MinioBucket:    "music",
	})
	require.NoError(t, err)
	assert.Equal(t, "music", c.Bucket())
}
