package service

import (
	"context"
	"mime/multipart"

	"go.uber.org/zap"

	"estate-listings/internal/core/cache"
	"estate-listings/internal/domain"
)

const dashboardKey = "listings:dashboard"

// ImageStore is satisfied by storage.ImageStore.
type ImageStore interface {
	Save(files []*multipart.FileHeader) ([]string, error)
	Remove(names []string) []error
}

type Dashboard struct {
	Rent []domain.Listing `json:"rent"`
	Buy  []domain.Listing `json:"buy"`
}

type CatalogService struct {
	repo   domain.ListingRepository
	images ImageStore
	cache  *cache.Cache
	log    *zap.Logger
}

// NewCatalogService accepts a nil cache.
func NewCatalogService(repo domain.ListingRepository, images ImageStore, c *cache.Cache, log *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, images: images, cache: c, log: log}
}

func (s *CatalogService) Dashboard(ctx context.Context) (Dashboard, error) {
	d, err := cache.GetOrLoadJSON(s.cache, ctx, dashboardKey, func(ctx context.Context) (Dashboard, error) {
		rent, err := s.repo.ListByKind(ctx, domain.ListingRent)
		if err != nil {
			return Dashboard{}, err
		}
		buy, err := s.repo.ListByKind(ctx, domain.ListingBuy)
		if err != nil {
			return Dashboard{}, err
		}
		return Dashboard{Rent: rent, Buy: buy}, nil
	})
	if err != nil {
		return Dashboard{}, domain.Internal("load dashboard", err)
	}
	return d, nil
}

func (s *CatalogService) Search(ctx context.Context, f domain.SearchFilter) ([]domain.Listing, error) {
	out, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, domain.Internal("search listings", err)
	}
	return out, nil
}

func (s *CatalogService) All(ctx context.Context) ([]domain.Listing, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Internal("list listings", err)
	}
	return out, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*domain.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load listing", err)
	}
	if l == nil {
		return nil, domain.NotFound("not found")
	}
	return l, nil
}

// Create stores the accepted images first, then the listing. Images are
// removed again if the listing cannot be written.
func (s *CatalogService) Create(ctx context.Context, in domain.ListingInput, files []*multipart.FileHeader) (*domain.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	names, err := s.images.Save(files)
	if err != nil {
		return nil, err
	}
	l := &domain.Listing{
		Title:       in.Title,
		Address:     in.Address,
		Rooms:       in.Rooms,
		Price:       in.Price,
		Description: in.Description,
		Kind:        in.Kind,
		Images:      names,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		for _, e := range s.images.Remove(names) {
			s.log.Warn("cleanup image after failed create", zap.Error(e))
		}
		return nil, domain.Internal("create listing", err)
	}
	s.invalidate(ctx)
	s.log.Info("listing created", zap.Uint("id", l.ID), zap.Int("images", len(names)))
	return l, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in domain.ListingInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	ok, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return domain.Internal("update listing", err)
	}
	if !ok {
		return domain.NotFound("not found")
	}
	s.invalidate(ctx)
	s.log.Info("listing updated", zap.Uint("id", id))
	return nil
}

// Delete removes the listing record and then its image files. File removal
// failures are returned as warnings; the record stays deleted.
func (s *CatalogService) Delete(ctx context.Context, id uint) (warnings []error, err error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, domain.Internal("delete listing", err)
	}
	if !ok {
		return nil, domain.NotFound("not found")
	}
	s.invalidate(ctx)

	warnings = s.images.Remove(l.Images)
	for _, w := range warnings {
		s.log.Warn("image removal failed", zap.Uint("listing_id", id), zap.Error(w))
	}
	s.log.Info("listing deleted", zap.Uint("id", id), zap.Int("images", len(l.Images)))
	return warnings, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardKey); err != nil {
		s.log.Warn("cache invalidate failed", zap.Error(err))
	}
}
