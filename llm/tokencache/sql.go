package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// tokenRecord 令牌表结构
type tokenRecord struct {
	Key       string `gorm:"column:token_key;primaryKey;size:191"`
	Value     []byte
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

func (tokenRecord) TableName() string { return "uniai_tokens" }

// SQLStore 基于 gorm 的令牌存储，进程重启后令牌仍然可用。
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite 打开（必要时创建）SQLite 文件并建表。
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite token store: %w", err)
	}
	return NewSQLStore(db)
}

// NewSQLStore 使用已有连接，并自动迁移表结构。
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&tokenRecord{}); err != nil {
		return nil, fmt.Errorf("migrate token table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec tokenRecord
	err := s.db.WithContext(ctx).Where("token_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rec := tokenRecord{Key: key, Value: value}
	if ttl > 0 {
		at := time.Now().Add(ttl)
		rec.ExpiresAt = &at
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&rec).Error
}

// Close 关闭底层连接。
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
