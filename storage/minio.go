package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"soundfolio/config"
	"soundfolio/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketStats 存储桶统计信息
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
	ETag         string
}

// MinioClient 封装了 MinIO 客户端
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// NewMinioClient 根据配置创建 MinIO 客户端，不会发起网络请求
func NewMinioClient(cfg *config.Config) (*MinioClient, error) {
	if cfg.MinioEndpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT 未配置")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	return &MinioClient{client: client, bucketName: cfg.MinioBucket}, nil
}

// Bucket 返回默认存储桶
func (m *MinioClient) Bucket() string { return m.bucketName }

// EnsureBucket 检查默认存储桶，不存在时创建
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("已创建存储桶", logger.String("bucket", m.bucketName))
	return nil
}

// FetchObject 打开 bucket/key 用于读取；对象不存在时在这里就返回错误，
// 而不是等到第一次 Read
func (m *MinioClient) FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if bucket == "" {
		bucket = m.bucketName
	}
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, key, err)
	}
	return obj, nil
}

// PutObject 上传数据到默认存储桶
func (m *MinioClient) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType, CacheControl: "no-cache"})
	if err != nil {
		return fmt.Errorf("上传对象 %s 失败: %w", key, err)
	}
	return nil
}

// PublishCatalog 上传本地曲目文件，返回 minio://bucket/key 引用
func (m *MinioClient) PublishCatalog(ctx context.Context, localPath, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("读取曲目文件失败: %w", err)
	}
	if key == "" {
		key = path.Base(localPath)
	}
	if err := m.EnsureBucket(ctx); err != nil {
		return "", err
	}
	if err := m.PutObject(ctx, key, data, "application/json"); err != nil {
		return "", err
	}
	ref := ObjectRef(m.bucketName, key)
	logger.Info("曲目目录已发布", logger.String("ref", ref), logger.Int("bytes", len(data)))
	return ref, nil
}

// ListObjects 列出默认存储桶中 prefix 下的对象
func (m *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	stats := &BucketStats{}
	var objects []ObjectInfo

	objectCh := m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("列出对象时出错: %w", object.Err)
		}

		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}

		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
			ETag:         object.ETag,
		})
	}
	return objects, stats, nil
}

// ObjectRef 生成曲目加载器可识别的 minio:// 地址
func ObjectRef(bucket, key string) string {
	return "minio://" + bucket + "/" + strings.TrimPrefix(key, "/")
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
