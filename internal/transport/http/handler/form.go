package handler

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-listings/internal/domain"
)

func formValue(c *gin.Context, key string) string {
	return strings.TrimSpace(c.PostForm(key))
}

func parseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Validation(field + " must be a whole number")
	}
	return n, nil
}

func parseFloat(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, domain.Validation(field + " must be a number")
	}
	return f, nil
}

// parseListingForm reads the listing fields of an add or edit form.
func parseListingForm(c *gin.Context) (domain.ListingInput, error) {
	in := domain.ListingInput{
		Title:       formValue(c, "title"),
		Address:     formValue(c, "address"),
		Description: strings.TrimSpace(c.PostForm("description")),
		Kind:        domain.ListingKind(formValue(c, "type")),
	}
	var err error
	if in.Rooms, err = parseInt("rooms", formValue(c, "rooms")); err != nil {
		return in, err
	}
	if in.Price, err = parseFloat("price", formValue(c, "price")); err != nil {
		return in, err
	}
	return in, in.Validate()
}

// parseSearchFilter reads type, rooms, price_min and price_max from get. Blank
// values are not applied.
func parseSearchFilter(get func(string) string) (domain.SearchFilter, error) {
	var f domain.SearchFilter
	if s := get("type"); s != "" {
		k, err := domain.ParseListingKind(s)
		if err != nil {
			return f, err
		}
		f.Kind = &k
	}
	if s := get("rooms"); s != "" {
		n, err := parseInt("rooms", s)
		if err != nil {
			return f, err
		}
		f.Rooms = &n
	}
	if s := get("price_min"); s != "" {
		v, err := parseFloat("price_min", s)
		if err != nil {
			return f, err
		}
		f.PriceMin = &v
	}
	if s := get("price_max"); s != "" {
		v, err := parseFloat("price_max", s)
		if err != nil {
			return f, err
		}
		f.PriceMax = &v
	}
	return f, nil
}

// parseID accepts positive decimal ids only.
func parseID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
