package repository

import (
	"context"
	"time"

	"soundfolio/model"

	"gorm.io/gorm"
)

// PlayRepository 播放历史数据访问接口
type PlayRepository interface {
	RecordPlay(ctx context.Context, track model.Track) error
	Recent(ctx context.Context, limit int) ([]*model.PlayRecord, error)
	TopTracks(ctx context.Context, since time.Time, limit int) ([]model.TrackPlays, error)
}

// gormPlayRepository GORM 实现
type gormPlayRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPlayRepository 创建 GORM 播放历史仓库
func NewGormPlayRepository(db *gorm.DB) PlayRepository {
	return &gormPlayRepository{db: db, now: time.Now}
}

// RecordPlay 记录一次播放
func (r *gormPlayRepository) RecordPlay(ctx context.Context, track model.Track) error {
	return r.db.WithContext(ctx).Create(model.NewPlayRecord(track, r.now())).Error
}

// Recent 最近播放，按时间倒序
func (r *gormPlayRepository) Recent(ctx context.Context, limit int) ([]*model.PlayRecord, error) {
	var records []*model.PlayRecord
	err := r.db.WithContext(ctx).
		Order("played_at DESC").
		Limit(clampLimit(limit)).
		Find(&records).Error
	return records, err
}

// TopTracks 统计 since 之后播放次数最多的曲目
func (r *gormPlayRepository) TopTracks(ctx context.Context, since time.Time, limit int) ([]model.TrackPlays, error) {
	var out []model.TrackPlays
	err := r.db.WithContext(ctx).Model(&model.PlayRecord{}).
		Select("track_id, MAX(title) AS title, COUNT(*) AS plays").
		Where("played_at >= ?", since).
		Group("track_id").
		Order("plays DESC").
		Limit(clampLimit(limit)).
		Find(&out).Error
	return out, err
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 200:
		return 200
	}
	return limit
}
