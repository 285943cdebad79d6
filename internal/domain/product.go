package domain

import "time"

type ProductType string

const (
	ProductMask         ProductType = "mask"
	ProductPurifier     ProductType = "purifier"
	ProductRoomPurifier ProductType = "room_purifier"
	ProductMonitor      ProductType = "monitor"
	ProductCarFilter    ProductType = "car-filter"
	ProductPlant        ProductType = "plant"
)

// ProductTypes lists the catalog enumeration in display order.
func ProductTypes() []ProductType {
	return []ProductType{
		ProductMask,
		ProductPurifier,
		ProductRoomPurifier,
		ProductMonitor,
		ProductCarFilter,
		ProductPlant,
	}
}

func (t ProductType) Valid() bool {
	for _, pt := range ProductTypes() {
		if pt == t {
			return true
		}
	}
	return false
}

type Product struct {
	ID             int64       `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	Type           ProductType `db:"product_type" json:"product_type"`
	Description    string      `db:"description" json:"description"`
	Price          *float64    `db:"price" json:"price"`
	ImageURL       string      `db:"image_url" json:"image_url"`
	ProductURL     string      `db:"product_url" json:"product_url"`
	AQIMin         int         `db:"aqi_min" json:"aqi_min"`
	AQIMax         int         `db:"aqi_max" json:"aqi_max"`
	Effectiveness  int         `db:"effectiveness" json:"effectiveness"`
	Rating         *float64    `db:"rating" json:"rating"`
	Reviews        *int        `db:"reviews" json:"reviews"`
	Features       []string    `db:"-" json:"features"`
	RecommendedFor []string    `db:"-" json:"recommended_for"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// RatingValue returns the rating or zero.
func (p Product) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// ProductFilter selects catalog rows. Nil bounds are not applied.
type ProductFilter struct {
	Type       ProductType
	MinAtMost  *int
	MaxAtLeast *int
	Limit      int
}

// ProductRecord is the canonical shopping result produced by a catalog adapter.
type ProductRecord struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
	ProductURL  string
	Source      string
	Rating      float64
	Reviews     int
	Delivery    string
	Raw         []byte
}
