package listing

import (
	"sort"
	"time"

	"estate-listings/internal/domain"
)

type ListingModel struct {
	ID          uint    `gorm:"primaryKey"`
	Address     string  `gorm:"size:255;not null"`
	Rooms       int     `gorm:"not null"`
	Price       float64 `gorm:"not null;index"`
	Description string  `gorm:"type:text"`
	Kind        string  `gorm:"column:type;size:16;not null;index"`
	Title       string  `gorm:"size:255;not null"`

	Images []ImageModel `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (ListingModel) TableName() string { return "listings" }

// ImageModel is one entry of a listing's ordered image list.
type ImageModel struct {
	ID        uint   `gorm:"primaryKey"`
	ListingID uint   `gorm:"not null;index"`
	Filename  string `gorm:"size:255;not null"`
	Position  int    `gorm:"not null;default:0"`
}

func (ImageModel) TableName() string { return "listing_images" }

func (m ListingModel) ToDomain() domain.Listing {
	imgs := append([]ImageModel(nil), m.Images...)
	sort.SliceStable(imgs, func(i, j int) bool { return imgs[i].Position < imgs[j].Position })
	names := make([]string, 0, len(imgs))
	for _, im := range imgs {
		names = append(names, im.Filename)
	}
	return domain.Listing{
		ID:          m.ID,
		Title:       m.Title,
		Address:     m.Address,
		Rooms:       m.Rooms,
		Price:       m.Price,
		Description: m.Description,
		Kind:        domain.ListingKind(m.Kind),
		Images:      names,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromDomain(l *domain.Listing) ListingModel {
	m := ListingModel{
		ID:          l.ID,
		Address:     l.Address,
		Rooms:       l.Rooms,
		Price:       l.Price,
		Description: l.Description,
		Kind:        string(l.Kind),
		Title:       l.Title,
	}
	for i, name := range l.Images {
		m.Images = append(m.Images, ImageModel{Filename: name, Position: i})
	}
	return m
}

// Models lists every table of this feature for AutoMigrate.
func Models() []any { return []any{&ListingModel{}, &ImageModel{}} }
