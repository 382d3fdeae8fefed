package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/posfront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository persists cart slices keyed by session id.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindBySession loads the session row with its items ordered by position.
func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.CartSession, error) {
	var record models.CartSession
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpsertSession creates or refreshes the session row.
func (r *Repository) UpsertSession(ctx context.Context, record *models.CartSession) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"customer_id", "updated_at"}),
		}).
		Create(record).Error
}

// ReplaceItems deletes existing items for the session and inserts the provided ones.
func (r *Repository) ReplaceItems(ctx context.Context, sessionID string, items []models.CartLineItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("session_id = ?", sessionID).Delete(&models.CartLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SessionID = sessionID
		items[i].Position = i
	}
	return tx.Create(&items).Error
}

// DeleteSession removes the session row and its items.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("session_id = ?", sessionID).Delete(&models.CartLineItem{}).Error; err != nil {
		return err
	}
	return tx.Where("session_id = ?", sessionID).Delete(&models.CartSession{}).Error
}

// Store loads and saves whole cart slices.
type Store struct {
	repo *Repository
	tx   txRunner
}

// NewStore wires the repository to a transaction runner.
func NewStore(repo *Repository, tx txRunner) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Store{repo: repo, tx: tx}, nil
}

// Load returns the cart slice for sessionID; an unknown session yields an empty cart.
func (s *Store) Load(ctx context.Context, sessionID string) (State, error) {
	record, err := s.repo.FindBySession(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{Items: []LineItem{}}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load cart: %w", err)
	}
	return fromModel(record), nil
}

// Save replaces the persisted cart slice for sessionID with state.
func (s *Store) Save(ctx context.Context, sessionID string, state State) error {
	record, items := toModel(sessionID, state)
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertSession(ctx, record); err != nil {
			return fmt.Errorf("save cart session: %w", err)
		}
		if err := repo.ReplaceItems(ctx, sessionID, items); err != nil {
			return fmt.Errorf("save cart items: %w", err)
		}
		return nil
	})
}

func fromModel(record *models.CartSession) State {
	state := State{CustomerID: copyString(record.CustomerID), Items: make([]LineItem, 0, len(record.Items))}
	for _, item := range record.Items {
		state.Items = append(state.Items, LineItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       copyString(item.VariantID),
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return state
}

func toModel(sessionID string, state State) (*models.CartSession, []models.CartLineItem) {
	record := &models.CartSession{SessionID: sessionID, CustomerID: copyString(state.CustomerID)}
	items := make([]models.CartLineItem, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, models.CartLineItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			VariantID:       copyString(item.VariantID),
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return record, items
}
