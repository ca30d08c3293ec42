package domain

import (
	"context"
	"time"
)

type ListingKind string

const (
	ListingRent ListingKind = "rent"
	ListingBuy  ListingKind = "buy"
)

func ParseListingKind(s string) (ListingKind, error) {
	switch k := ListingKind(s); k {
	case ListingRent, ListingBuy:
		return k, nil
	}
	return "", Validation("listing type must be rent or buy")
}

// MaxImages bounds Listing.Images.
const MaxImages = 6

type Listing struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Address     string      `json:"address"`
	Rooms       int         `json:"rooms"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	Kind        ListingKind `json:"type"`
	Images      []string    `json:"images"` // generated filenames, in upload order
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ListingInput holds the editable fields of a listing, already parsed.
type ListingInput struct {
	Title       string
	Address     string
	Rooms       int
	Price       float64
	Description string
	Kind        ListingKind
}

func (in ListingInput) Validate() error {
	switch {
	case in.Title == "":
		return Validation("title is required")
	case in.Address == "":
		return Validation("address is required")
	case in.Rooms < 0:
		return Validation("rooms must not be negative")
	case in.Price < 0:
		return Validation("price must not be negative")
	}
	_, err := ParseListingKind(string(in.Kind))
	return err
}

// SearchFilter: nil fields are not applied.
type SearchFilter struct {
	Kind     *ListingKind
	Rooms    *int
	PriceMin *float64
	PriceMax *float64
}

func (f SearchFilter) Matches(l Listing) bool {
	if f.Kind != nil && l.Kind != *f.Kind {
		return false
	}
	if f.Rooms != nil && l.Rooms != *f.Rooms {
		return false
	}
	if f.PriceMin != nil && l.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && l.Price > *f.PriceMax {
		return false
	}
	return true
}

// ListingRepository returns (nil, nil) from FindByID when no listing matches.
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id uint) (*Listing, error)
	List(ctx context.Context) ([]Listing, error)
	ListByKind(ctx context.Context, kind ListingKind) ([]Listing, error)
	Search(ctx context.Context, f SearchFilter) ([]Listing, error)
	Update(ctx context.Context, id uint, in ListingInput) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
}
