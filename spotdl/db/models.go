package db

import (
	"time"

	"gorm.io/gorm"
)

// TrackRecord is one completed download in the history.
type TrackRecord struct {
	ID        uint
	CreatedAt time.Time
	UpdatedAt time.Time

	AlbumID     string
	AlbumName   string
	TrackID     string
	TrackName   string
	TrackNumber int
	Artists     string
	Format      string
	Path        string
	Size        int64
	MD5         string
}

// TrackRecordModel mirrors the track_records schema.
type TrackRecordModel struct {
	gorm.Model
	AlbumID     string `gorm:"not null;default:''"`
	AlbumName   string
	TrackID     string `gorm:"not null;default:'';index:idx_track_format,unique"`
	TrackName   string
	TrackNumber int
	Artists     string
	Format      string `gorm:"not null;default:'';index:idx_track_format,unique"`
	Path        string
	Size        int64
	MD5         string
}

func (TrackRecordModel) TableName() string {
	return "track_records"
}

func toInternal(model TrackRecordModel) *TrackRecord {
	return &TrackRecord{
		ID:          model.ID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		AlbumID:     model.AlbumID,
		AlbumName:   model.AlbumName,
		TrackID:     model.TrackID,
		TrackName:   model.TrackName,
		TrackNumber: model.TrackNumber,
		Artists:     model.Artists,
		Format:      model.Format,
		Path:        model.Path,
		Size:        model.Size,
		MD5:         model.MD5,
	}
}

func toModel(record *TrackRecord) *TrackRecordModel {
	if record == nil {
		return &TrackRecordModel{}
	}

	model := &TrackRecordModel{
		AlbumID:     record.AlbumID,
		AlbumName:   record.AlbumName,
		TrackID:     record.TrackID,
		TrackName:   record.TrackName,
		TrackNumber: record.TrackNumber,
		Artists:     record.Artists,
		Format:      record.Format,
		Path:        record.Path,
		Size:        record.Size,
		MD5:         record.MD5,
	}

	if record.ID != 0 {
		model.ID = record.ID
	}
	if !record.CreatedAt.IsZero() {
		model.CreatedAt = record.CreatedAt
	}
	if !record.UpdatedAt.IsZero() {
		model.UpdatedAt = record.UpdatedAt
	}

	return model
}
