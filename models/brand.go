package models

import "time"

// Brand is a static, curated taxonomic axis for products (spec.md §3).
type Brand struct {
	Code      string    `json:"code" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"not null"`
	ParentOrg string    `json:"parent_org"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Brand) TableName() string { return "brands" }

// SuperCategory is the top-level family grouping.
type SuperCategory string

const (
	SuperCategoryRefrigerator SuperCategory = "refrigerator"
	SuperCategoryFreezer      SuperCategory = "freezer"
	SuperCategoryCryogenic    SuperCategory = "cryogenic"
	SuperCategoryAccessory    SuperCategory = "accessory"
)

// Family is a static, curated taxonomic axis for products (spec.md §3).
type Family struct {
	Code          string        `json:"code" gorm:"primaryKey;size:32"`
	SuperCategory SuperCategory `json:"super_category" gorm:"size:32;not null"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Family) TableName() string { return "families" }
