package cmd

import (
	"fmt"

	"soundfolio/cache"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis 缓存工具",
	Long:  `测试 Redis 连接，查看或清空播放器缓存的时长和音量。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// cobra 只执行最近的 PersistentPreRun，这里需要自己加载配置
		rootCmd.PersistentPreRun(cmd, args)
		if !cfg.RedisEnabled() {
			return fmt.Errorf("REDIS_HOST is not set")
		}
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
		if err := cache.ConnectRedis(cfg); err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cache.CloseRedis()
		rootCmd.PersistentPostRun(cmd, args)
	},
}

var redisTestCmd = &cobra.Command{
	Use:   "test",
	Short: "测试基本读写",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cache.TestRedis(cmd.Context()); err != nil {
			return fmt.Errorf("Redis操作测试失败: %w", err)
		}
		fmt.Println(okColor("✓"), "Redis基本操作测试成功")
		return nil
	},
}

var redisStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "查看缓存内容",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := cache.Inspect(cmd.Context())
		if err != nil {
			return err
		}
		vol := stats.Volume
		if vol == "" {
			vol = dimColor("(unset)")
		}
		fmt.Printf("cached durations: %d\n", stats.Durations)
		fmt.Printf("saved volume:     %s\n", vol)
		return nil
	},
}

var redisFlushCmd = &cobra.Command{
	Use:   "flush-durations",
	Short: "清空缓存的时长",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cache.FlushDurations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s removed %d cached durations\n", okColor("✓"), n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
	redisCmd.AddCommand(redisTestCmd, redisStatsCmd, redisFlushCmd)
}
