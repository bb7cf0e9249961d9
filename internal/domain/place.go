package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Place is a point of interest collected for a trip.
// Places are scoped to one trip and referenced, not owned, by timeline items:
// deleting a place detaches it from any item that used it.
// CoverImageURL holds a stock image picked by category.
type Place struct {
	ID            uuid.UUID
	TripID        uuid.UUID
	Name          string
	Description   string
	Category      string
	CoverImageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DefaultPlaceCoverURL is the cover of places without a known category.
const DefaultPlaceCoverURL = "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146721/KakaoTalk_20260215_125901244_nzvsch.png"

var categoryCoverURLs = map[string]string{
	"shopping":    "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_02_qrxjmg.png",
	"experience":  "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_iarx8o.png",
	"lodging":     "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_03_xifp0v.png",
	"sightseeing": "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_01_uwezty.png",
	"restaurant":  "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_04_a8ixcj.png",
	"cafe":        "https://res.cloudinary.com/dxlycqpyp/image/upload/v1771146720/KakaoTalk_20260215_125850088_05_gy3bvu.png",
}

// DefaultPlaceCover returns the stock cover image for category. Matching
// ignores case and surrounding space; blank or unknown categories get
// DefaultPlaceCoverURL.
func DefaultPlaceCover(category string) string {
	if url, ok := categoryCoverURLs[strings.ToLower(strings.TrimSpace(category))]; ok {
		return url
	}
	return DefaultPlaceCoverURL
}

// IsDefaultPlaceCover reports whether url is one of the stock covers.
func IsDefaultPlaceCover(url string) bool {
	if url == DefaultPlaceCoverURL {
		return true
	}
	for _, u := range categoryCoverURLs {
		if u == url {
			return true
		}
	}
	return false
}

// PlacePatch carries a partial place update. Nil fields keep their stored value.
type PlacePatch struct {
	Name        *string
	Description *string
	Category    *string
}

// Apply returns a copy of p with every non-nil patch field applied.
// A place still showing a stock cover follows a category change to the
// new category's cover.
func (pp PlacePatch) Apply(p Place) Place {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Category != nil {
		if p.CoverImageURL == "" || IsDefaultPlaceCover(p.CoverImageURL) {
			p.CoverImageURL = DefaultPlaceCover(*pp.Category)
		}
		p.Category = *pp.Category
	}
	return p
}
