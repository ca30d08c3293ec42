package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-listings/internal/domain"
)

func formContext(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c
}

func TestParseListingForm(t *testing.T) {
	valid := url.Values{
		"title": {" Flat "}, "address": {"Main 1"}, "rooms": {"3"},
		"price": {"1200.5"}, "description": {"quiet"}, "type": {"buy"},
	}
	in, err := parseListingForm(formContext(t, valid))
	require.NoError(t, err)
	assert.Equal(t, domain.ListingInput{
		Title: "Flat", Address: "Main 1", Rooms: 3, Price: 1200.5, Description: "quiet", Kind: domain.ListingBuy,
	}, in)

	cases := []struct {
		field, value, msg string
	}{
		{"rooms", "", "rooms must be a whole number"},
		{"rooms", "2.5", "rooms must be a whole number"},
		{"price", "NaN", "price must be a number"},
		{"price", "-1", "price must not be negative"},
		{"type", "lease", "listing type must be rent or buy"},
		{"title", " ", "title is required"},
	}
	for _, tc := range cases {
		t.Run(tc.field+"="+tc.value, func(t *testing.T) {
			form := url.Values{}
			for k, v := range valid {
				form[k] = v
			}
			form.Set(tc.field, tc.value)
			_, err := parseListingForm(formContext(t, form))
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Equal(t, tc.msg, domain.Message(err))
		})
	}
}

func TestParseSearchFilter(t *testing.T) {
	get := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}

	f, err := parseSearchFilter(get(nil))
	require.NoError(t, err)
	assert.Equal(t, domain.SearchFilter{}, f)

	f, err = parseSearchFilter(get(map[string]string{"type": "rent", "rooms": "2", "price_max": "900"}))
	require.NoError(t, err)
	require.NotNil(t, f.Kind)
	assert.Equal(t, domain.ListingRent, *f.Kind)
	assert.Equal(t, 2, *f.Rooms)
	assert.Nil(t, f.PriceMin)
	assert.Equal(t, 900.0, *f.PriceMax)

	_, err = parseSearchFilter(get(map[string]string{"rooms": "many"}))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "42": true, "0": false, "-1": false, "x": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := parseID(c)
		assert.Equal(t, want, ok, raw)
	}
}
