package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"estate-listings/internal/domain"
	"estate-listings/internal/feature/listing"
)

type ListingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) *ListingRepo { return &ListingRepo{db: db} }

func (r *ListingRepo) withImages(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Images", func(q *gorm.DB) *gorm.DB {
		return q.Order("position ASC")
	})
}

// Create inserts the listing and its image rows in one transaction.
func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	m := listing.FromDomain(l)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&m).Error
	})
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	l.ID, l.CreatedAt, l.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *ListingRepo) FindByID(ctx context.Context, id uint) (*domain.Listing, error) {
	var m listing.ListingModel
	err := r.withImages(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	l := m.ToDomain()
	return &l, nil
}

func (r *ListingRepo) List(ctx context.Context) ([]domain.Listing, error) {
	return r.find(r.withImages(ctx))
}

func (r *ListingRepo) ListByKind(ctx context.Context, kind domain.ListingKind) ([]domain.Listing, error) {
	return r.find(r.withImages(ctx).Where("type = ?", string(kind)))
}

// Search applies the conjunction of the non-nil filters.
func (r *ListingRepo) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Listing, error) {
	q := r.withImages(ctx)
	if f.Kind != nil {
		q = q.Where("type = ?", string(*f.Kind))
	}
	if f.Rooms != nil {
		q = q.Where("rooms = ?", *f.Rooms)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}
	return r.find(q)
}

func (r *ListingRepo) find(q *gorm.DB) ([]domain.Listing, error) {
	var ms []listing.ListingModel
	if err := q.Order("id ASC").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	out := make([]domain.Listing, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToDomain())
	}
	return out, nil
}

// Update changes scalar fields only; the image list is left as is.
func (r *ListingRepo) Update(ctx context.Context, id uint, in domain.ListingInput) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m listing.ListingModel
		if err := tx.Select("id").First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		return tx.Model(&m).Updates(map[string]any{
			"title":       in.Title,
			"address":     in.Address,
			"rooms":       in.Rooms,
			"price":       in.Price,
			"description": in.Description,
			"type":        string(in.Kind),
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("update listing: %w", err)
	}
	return found, nil
}

func (r *ListingRepo) Delete(ctx context.Context, id uint) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&listing.ImageModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&listing.ListingModel{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	return affected > 0, nil
}
