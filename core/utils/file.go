package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DownloadFile 下载文件到指定路径
func DownloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("下载文件失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载文件失败，状态码: %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}
	return nil
}

// DownloadTemp 下载到临时文件，调用方负责删除
func DownloadTemp(ctx context.Context, url, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	name := f.Name()
	f.Close()

	if err := DownloadFile(ctx, url, name); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
