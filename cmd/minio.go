package cmd

import (
	"fmt"

	"soundfolio/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioKey    string
	minioClient *storage.MinioClient
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `列出存储桶中的媒体文件，或把本地曲目目录发布到 MinIO。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return fmt.Errorf("创建MinIO客户端失败: %w", err)
		}
		minioClient = client
		return nil
	},
}

var minioListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		objects, stats, err := minioClient.ListObjects(cmd.Context(), minioPrefix)
		if err != nil {
			return err
		}
		for _, o := range objects {
			fmt.Printf("%10s  %s  %s\n", storage.FormatSize(o.Size), o.LastModified.Format("2006-01-02 15:04"), o.Key)
		}
		fmt.Printf("\n%d objects, %s", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf(", last modified %s", stats.LastModified.Format("2006-01-02 15:04"))
		}
		fmt.Println()
		return nil
	},
}

var minioPublishCmd = &cobra.Command{
	Use:   "publish [catalog.json]",
	Short: "上传曲目目录",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		local := cfg.CatalogSource
		if len(args) == 1 {
			local = args[0]
		}
		ref, err := minioClient.PublishCatalog(cmd.Context(), local, minioKey)
		if err != nil {
			return err
		}
		fmt.Printf("%s published %s\n", okColor("✓"), local)
		fmt.Printf("  set CATALOG_SOURCE=%s to serve it\n", ref)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.AddCommand(minioListCmd, minioPublishCmd)

	minioListCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioPublishCmd.Flags().StringVar(&minioKey, "key", "", "object key (default: the file name)")

	minioCmd.Example = `  # 列出所有文件
  soundfolio minio list

  # 按前缀过滤文件
  soundfolio minio list -p "audio/"

  # 发布曲目目录
  soundfolio minio publish assets/js/tracks.json --key tracks.json`
}
