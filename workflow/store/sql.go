package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/flowgraph-io/flowgraph/workflow"
)

// workflowRecord is the persistence row: the graph travels as its JSON
// interchange document, with the id and name lifted out for lookups.
type workflowRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"index"`
	Definition []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (workflowRecord) TableName() string { return "workflows" }

// SQLStore persists workflows in a SQLite database through gorm. The
// sqlite driver is pure Go, so the store needs no cgo toolchain.
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLStore opens (creating if needed) the database at path and migrates
// the workflow table.
func NewSQLStore(path string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&workflowRecord{}); err != nil {
		return nil, fmt.Errorf("migrate workflow table: %w", err)
	}

	logger.Info("sql store initialized", zap.String("path", path))
	return &SQLStore{
		db:     db,
		logger: logger.With(zap.String("component", "sql_store")),
	}, nil
}

// Save upserts the workflow row, assigning an id when empty.
func (s *SQLStore) Save(ctx context.Context, wf *workflow.Workflow) (string, error) {
	if wf.ID == "" {
		wf.ID = workflow.NewID()
	}
	doc, err := wf.ToJSON()
	if err != nil {
		return "", fmt.Errorf("serialize workflow %s: %w", wf.ID, err)
	}

	rec := workflowRecord{
		ID:         wf.ID,
		Name:       wf.Name,
		Definition: []byte(doc),
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		s.logger.Error("workflow save failed", zap.String("id", wf.ID), zap.Error(err))
		return "", fmt.Errorf("save workflow %s: %w", wf.ID, err)
	}
	s.logger.Debug("workflow saved", zap.String("id", wf.ID), zap.String("name", wf.Name))
	return wf.ID, nil
}

// Get loads and deserializes the workflow with the given id.
func (s *SQLStore) Get(ctx context.Context, id string) (*workflow.Workflow, error) {
	var rec workflowRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load workflow %s: %w", id, err)
	}
	wf, err := workflow.FromJSON(rec.Definition)
	if err != nil {
		return nil, fmt.Errorf("deserialize workflow %s: %w", id, err)
	}
	return wf, nil
}

// List loads every stored workflow ordered by name.
func (s *SQLStore) List(ctx context.Context) ([]*workflow.Workflow, error) {
	var recs []workflowRecord
	if err := s.db.WithContext(ctx).Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	out := make([]*workflow.Workflow, 0, len(recs))
	for _, rec := range recs {
		wf, err := workflow.FromJSON(rec.Definition)
		if err != nil {
			return nil, fmt.Errorf("deserialize workflow %s: %w", rec.ID, err)
		}
		out = append(out, wf)
	}
	return out, nil
}

// Delete removes the workflow row.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&workflowRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete workflow %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.logger.Debug("workflow deleted", zap.String("id", id))
	return nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
