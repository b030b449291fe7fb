// Package store implements the productos table primitives on top of gorm.
// Each mutation runs in its own transaction and is committed before the
// method returns.
package store

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"

	"productos/internal/models"
)

// Products is the gorm backed product store. It is safe for concurrent use.
type Products struct {
	db *gorm.DB
}

// NewProducts returns a store over db.
func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

// All returns every product ordered by id.
func (s *Products) All(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, errors.Annotate(err, "listing productos")
	}
	return items, nil
}

// Get returns the product with the given id, or nil with no error when the
// row does not exist.
func (s *Products) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Take(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "getting producto %d", id)
	}
	return &p, nil
}

// Create inserts p and reloads it, so p carries the assigned id and the
// values as the column types stored them (precio is rounded to 2 places).
func (s *Products) Create(ctx context.Context, p *models.Product) error {
	p.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return errors.Trace(err)
		}
		return take(tx, p, p.ID)
	})
	return errors.Annotate(err, "creating producto")
}

// Update loads the product, lets apply overwrite it, and saves it in a
// single transaction. A missing id yields a NotFound error.
func (s *Products) Update(ctx context.Context, id uint, apply func(*models.Product)) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := take(tx, &p, id); err != nil {
			return err
		}
		apply(&p)
		p.ID = id
		if err := tx.Save(&p).Error; err != nil {
			return errors.Trace(err)
		}
		return take(tx, &p, id)
	})
	if err != nil {
		return nil, errors.Annotatef(err, "updating producto %d", id)
	}
	return &p, nil
}

// Delete removes the product and returns its state prior to deletion.
func (s *Products) Delete(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := take(tx, &p, id); err != nil {
			return err
		}
		return errors.Trace(tx.Delete(&models.Product{}, id).Error)
	})
	if err != nil {
		return nil, errors.Annotatef(err, "deleting producto %d", id)
	}
	return &p, nil
}

func take(tx *gorm.DB, p *models.Product, id uint) error {
	err := tx.Take(p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundf("producto %d", id)
	}
	return errors.Trace(err)
}
