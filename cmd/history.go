package cmd

import (
	"fmt"
	"time"

	"soundfolio/db"
	"soundfolio/model"
	"soundfolio/repository"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyDays  int
	historyRepo  repository.PlayRepository
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "播放历史",
	Long:  `查看 MySQL 中记录的播放历史，或创建所需的数据表。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCmd.PersistentPreRun(cmd, args)
		if !cfg.DBEnabled() {
			return fmt.Errorf("DB_HOST is not set")
		}
		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		historyRepo = repository.NewGormPlayRepository(db.GormDB)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		db.CloseGormDB()
		rootCmd.PersistentPostRun(cmd, args)
	},
}

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "最近播放",
	RunE: func(cmd *cobra.Command, args []string) error {
		plays, err := historyRepo.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		for _, p := range plays {
			fmt.Printf("%s  %-28s %-20s %s\n", p.PlayedAt.Local().Format("2006-01-02 15:04"), p.Title, p.Artist, dimColor(p.Tag))
		}
		return nil
	},
}

var historyTopCmd = &cobra.Command{
	Use:   "top",
	Short: "播放次数排行",
	RunE: func(cmd *cobra.Command, args []string) error {
		since := time.Now().AddDate(0, 0, -historyDays)
		top, err := historyRepo.TopTracks(cmd.Context(), since, historyLimit)
		if err != nil {
			return err
		}
		for n, t := range top {
			fmt.Printf("%3d. %-28s %5d plays\n", n+1, t.Title, t.Plays)
		}
		return nil
	},
}

var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据表",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.AutoMigrateModels(&model.PlayRecord{}); err != nil {
			return err
		}
		fmt.Println(okColor("✓"), "play_history is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRecentCmd, historyTopCmd, historyMigrateCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "number of rows")
	historyTopCmd.Flags().IntVar(&historyDays, "days", 30, "only count plays from the last N days")
}
