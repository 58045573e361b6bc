// Package ledger persists the order and trade audit trail in SQLite via Gorm.
// It is a write-mostly sink: the engine never reads account state back from it.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"papertrade/internal/engine"
)

// OrderRecord mirrors one order lifecycle event. Payload keeps the full order
// document for replay and debugging.
type OrderRecord struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	OrderID        string `gorm:"size:64;index"`
	Symbol         string `gorm:"size:32;index"`
	Kind           string `gorm:"size:16"`
	Side           string `gorm:"size:8"`
	Status         string `gorm:"size:16"`
	Quantity       float64
	Price          float64
	StopPrice      float64
	FilledQuantity float64
	FilledPrice    float64
	Payload        datatypes.JSON
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (OrderRecord) TableName() string { return "orders" }

// TradeRecord is one appended trade-ledger row.
type TradeRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	TradeID     string `gorm:"size:64;uniqueIndex"`
	Symbol      string `gorm:"size:32;index"`
	Side        string `gorm:"size:8"`
	Quantity    float64
	Price       float64
	Commission  float64
	RealizedPnL float64
	ExecutedAt  time.Time `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (TradeRecord) TableName() string { return "trades" }

// Store wraps the Gorm handle.
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ledger store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&OrderRecord{}, &TradeRecord{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a couple of connections is enough for writes plus
	// concurrent HTTP reads without lock churn.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) InsertOrder(ctx context.Context, ord engine.Order) error {
	payload, err := json.Marshal(ord)
	if err != nil {
		return err
	}
	rec := OrderRecord{
		OrderID:        ord.ID,
		Symbol:         ord.Symbol,
		Kind:           string(ord.Kind),
		Side:           string(ord.Side),
		Status:         string(ord.Status),
		Quantity:       ord.Quantity,
		Price:          ord.Price,
		StopPrice:      ord.StopPrice,
		FilledQuantity: ord.FilledQuantity,
		FilledPrice:    ord.FilledPrice,
		Payload:        datatypes.JSON(payload),
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *Store) InsertTrade(ctx context.Context, t engine.Trade) error {
	rec := TradeRecord{
		TradeID:     t.ID,
		Symbol:      t.Symbol,
		Side:        string(t.Side),
		Quantity:    t.Quantity,
		Price:       t.Price,
		Commission:  t.Commission,
		RealizedPnL: t.RealizedPnL,
		ExecutedAt:  t.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// RecentTrades returns the newest rows first, capped at limit.
func (s *Store) RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []TradeRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// RecentOrders returns the newest rows first, capped at limit.
func (s *Store) RecentOrders(ctx context.Context, limit int) ([]OrderRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderRecord
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
