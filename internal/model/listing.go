package model

import "strings"

// ImageURLPrefix is the path under which uploaded images are served.
const ImageURLPrefix = "/upload/"

const thumbnailTransform = "w_100,h_100/"

type Image struct {
	URL      string `bson:"url" json:"url"`
	Filename string `bson:"filename" json:"filename"`
}

// ThumbnailURL asks the image host for a 100x100 rendition of the image.
func (i Image) ThumbnailURL() string {
	return strings.Replace(i.URL, ImageURLPrefix, ImageURLPrefix+thumbnailTransform, 1)
}

// Geometry is a GeoJSON point, coordinates ordered [lon, lat].
type Geometry struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewPoint(lat, lon float64) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{lon, lat}}
}

type Listing struct {
	ID          string   `bson:"_id" json:"id"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description" json:"description"`
	Image       *Image   `bson:"image,omitempty" json:"image,omitempty"`
	Price       *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Location    string   `bson:"location" json:"location"`
	Country     string   `bson:"country" json:"country"`
	Geometry    Geometry `bson:"geometry" json:"geometry"`
	Reviews     []string `bson:"reviews" json:"reviews"`
	Owner       string   `bson:"owner" json:"owner"`
}

// ListingInput carries the user-editable fields of a listing. A nil field
// was not submitted.
type ListingInput struct {
	Title       *string
	Description *string
	Price       *float64
	Location    *string
	Country     *string
}

// Merge returns a copy of l with every submitted field of in applied.
// Owner, reviews, image and geometry are never touched.
func (l Listing) Merge(in ListingInput) Listing {
	out := l.Clone()
	if in.Title != nil {
		out.Title = *in.Title
	}
	if in.Description != nil {
		out.Description = *in.Description
	}
	if in.Price != nil {
		p := *in.Price
		out.Price = &p
	}
	if in.Location != nil {
		out.Location = *in.Location
	}
	if in.Country != nil {
		out.Country = *in.Country
	}
	return out
}

// LocationChanged reports whether o points somewhere other than l.
func (l Listing) LocationChanged(o Listing) bool {
	return l.Location != o.Location || l.Country != o.Country
}

// Clone returns a deep copy of l.
func (l Listing) Clone() Listing {
	out := l
	if l.Image != nil {
		img := *l.Image
		out.Image = &img
	}
	if l.Price != nil {
		p := *l.Price
		out.Price = &p
	}
	out.Geometry.Coordinates = append([]float64(nil), l.Geometry.Coordinates...)
	out.Reviews = append([]string{}, l.Reviews...)
	return out
}
