// Package service joins a nearest-neighbor searcher with item storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/index"
	"github.com/hyperjump/knn/internal/models"
	"github.com/hyperjump/knn/internal/storage"
	"github.com/hyperjump/knn/internal/vector"
)

var (
	// ErrDuplicateID is returned when adding an item whose ID is already stored.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrAlreadyRestored is returned when Restore is called on an engine whose
	// searcher already holds items.
	ErrAlreadyRestored = errors.New("index already restored")
)

// Engine persists items and keeps the searcher in step with storage.
type Engine struct {
	storage  storage.Storage
	searcher index.Searcher
	config   *config.SearchConfig
	logger   *zap.Logger

	mu          sync.RWMutex
	ids         []string // searcher ordinal -> item ID
	nextOrdinal int
	restored    bool
}

// Stats describes the engine's index.
type Stats struct {
	Type        string `json:"type"`
	Dimension   int    `json:"dimension"`
	IndexSize   int    `json:"index_size"`
	SearchSize  int    `json:"search_size"`
	StoredItems int64  `json:"stored_items"`
}

// NewEngine creates an engine over an empty searcher. Call Restore to load stored items.
func NewEngine(store storage.Storage, searcher index.Searcher, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.SearchConfig{DefaultLimit: 10, MaxLimit: 1000}
	}
	return &Engine{
		storage:  store,
		searcher: searcher,
		config:   cfg,
		logger:   logger,
	}
}

// Restore replays stored items into the searcher in ordinal order.
// Items whose dimension does not match the searcher, or that hold non-finite
// components, are skipped. It may run once, before any Add.
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.restored || e.searcher.Size() != 0 {
		return ErrAlreadyRestored
	}

	start := time.Now()
	skipped := 0
	err := e.storage.ListItems(ctx, func(item *models.Item) error {
		if item.Ordinal >= e.nextOrdinal {
			e.nextOrdinal = item.Ordinal + 1
		}
		if len(item.Vector) != e.searcher.Dimension() {
			skipped++
			e.logger.Warn("skipping stored item with wrong dimension",
				zap.String("id", item.ID),
				zap.Int("dimension", len(item.Vector)),
				zap.Int("want", e.searcher.Dimension()))
			return nil
		}
		if !vector.Vector(item.Vector).IsFinite() {
			skipped++
			e.logger.Warn("skipping stored item with non-finite vector", zap.String("id", item.ID))
			return nil
		}
		if err := e.searcher.Add(ctx, vector.Vector(item.Vector)); err != nil {
			return fmt.Errorf("restore item %s: %w", item.ID, err)
		}
		e.ids = append(e.ids, item.ID)
		return nil
	})
	if err != nil {
		return err
	}
	e.restored = true
	e.logger.Info("index restored",
		zap.Int("items", len(e.ids)),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Add persists the item and then inserts its vector into the searcher.
// The item ID is generated when empty.
func (e *Engine) Add(ctx context.Context, input *models.ItemInput) (*models.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(ctx, input)
}

func (e *Engine) addLocked(ctx context.Context, input *models.ItemInput) (*models.Item, error) {
	if len(input.Vector) != e.searcher.Dimension() {
		return nil, fmt.Errorf("%w: got %d components, want %d",
			index.ErrDimensionMismatch, len(input.Vector), e.searcher.Dimension())
	}
	if !vector.Vector(input.Vector).IsFinite() {
		return nil, fmt.Errorf("%w: vector has a non-finite component", index.ErrInvalidArgument)
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	} else if _, err := e.storage.GetItem(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	item := &models.Item{
		ID:      id,
		Ordinal: e.nextOrdinal,
		Label:   input.Label,
		Vector:  append([]float64(nil), input.Vector...),
	}
	if err := e.storage.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	e.nextOrdinal++

	if err := e.searcher.Add(ctx, vector.Vector(item.Vector)); err != nil {
		e.logger.Error("item stored but not indexed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	e.ids = append(e.ids, id)
	e.logger.Debug("item added", zap.String("id", id), zap.Int("ordinal", item.Ordinal))
	return item, nil
}

// Import adds items in order. Items whose ID is already stored are skipped.
// It returns how many items were added and stops at the first other error.
func (e *Engine) Import(ctx context.Context, items []models.ItemInput) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := 0
	for i := range items {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		_, err := e.addLocked(ctx, &items[i])
		if errors.Is(err, ErrDuplicateID) {
			e.logger.Debug("import skipping existing item", zap.String("id", items[i].ID))
			continue
		}
		if err != nil {
			return added, fmt.Errorf("item %d: %w", i, err)
		}
		added++
	}
	return added, nil
}

// Search returns the nearest stored items to the query vector.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.config.DefaultLimit, e.config.MaxLimit); err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrInvalidArgument, err)
	}

	hits, ids, indexSize, searchSize, err := e.searchIndex(ctx, query)
	if err != nil {
		return nil, err
	}

	response := &models.SearchResponse{
		Results:    make([]*models.SearchResult, 0, len(hits)),
		IndexSize:  indexSize,
		SearchSize: searchSize,
	}
	for i, hit := range hits {
		item, err := e.storage.GetItem(ctx, ids[i])
		if err != nil {
			e.logger.Warn("search hit missing from storage", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Item:     item,
			Distance: hit.Distance,
			Rank:     len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

// searchIndex runs the query against the searcher and resolves ordinals to IDs.
// A per-query search size is applied for the duration of the call only.
func (e *Engine) searchIndex(ctx context.Context, query *models.SearchQuery) ([]index.Result, []string, int, int, error) {
	if query.SearchSize > 0 {
		e.mu.Lock()
		defer e.mu.Unlock()
		previous := e.searcher.SearchSize()
		if err := e.searcher.SetSearchSize(query.SearchSize); err != nil {
			return nil, nil, 0, 0, err
		}
		defer func() {
			if err := e.searcher.SetSearchSize(previous); err != nil {
				e.logger.Error("failed to restore search size", zap.Error(err))
			}
		}()
	} else {
		e.mu.RLock()
		defer e.mu.RUnlock()
	}

	searchSize := e.searcher.SearchSize()
	hits, err := e.searcher.Search(ctx, vector.Vector(query.Vector), query.Limit)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = e.ids[hit.Ordinal]
	}
	return hits, ids, e.searcher.Size(), searchSize, nil
}

// GetItem returns a stored item by ID.
func (e *Engine) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return e.storage.GetItem(ctx, id)
}

// SetSearchSize changes the searcher's harvesting window.
func (e *Engine) SetSearchSize(k int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.searcher.SetSearchSize(k); err != nil {
		return err
	}
	e.logger.Info("search size changed", zap.Int("search_size", k))
	return nil
}

// Stats reports the index type, dimension, size and search size.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stored, err := e.storage.CountItems(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Stats{
		Type:        e.searcher.Type(),
		Dimension:   e.searcher.Dimension(),
		IndexSize:   e.searcher.Size(),
		SearchSize:  e.searcher.SearchSize(),
		StoredItems: stored,
	}, nil
}
