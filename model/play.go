package model

import "time"

// PlayRecord is one play history row, written each time a track starts playing.
type PlayRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID   string    `json:"trackId" gorm:"size:128;index;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	Artist    string    `json:"artist" gorm:"size:255"`
	Tag       string    `json:"tag" gorm:"size:64;index"` // primary tag at the time of the play
	SourceURL string    `json:"sourceUrl" gorm:"size:1024"`
	PlayedAt  time.Time `json:"playedAt" gorm:"index;not null"`
}

// TableName pins the table name.
func (PlayRecord) TableName() string {
	return "play_history"
}

// NewPlayRecord builds the history row for a track that started at playedAt.
func NewPlayRecord(t Track, playedAt time.Time) *PlayRecord {
	rec := &PlayRecord{
		TrackID:  t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Tag:      t.PrimaryTag(),
		PlayedAt: playedAt,
	}
	if len(t.Sources) > 0 {
		rec.SourceURL = t.Sources[0].URL
	}
	return rec
}

// TrackPlays is one row of the most-played report.
type TrackPlays struct {
	TrackID string `json:"trackId"`
	Title   string `json:"title"`
	Plays   int64  `json:"plays"`
}
