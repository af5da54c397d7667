package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryType buckets a non-portfolio wealth item.
type CategoryType string

const (
	CategoryTypeCash     CategoryType = "cash"
	CategoryTypeProperty CategoryType = "property"
	CategoryTypePension  CategoryType = "pension"
	CategoryTypeLoan     CategoryType = "loan"
	CategoryTypeOther    CategoryType = "other"
)

// WealthCategory is an asset or liability tracked outside the portfolios.
// IsLiability is authoritative for aggregation.
type WealthCategory struct {
	Base
	CategoryType CategoryType `gorm:"type:varchar(50);not null;uniqueIndex:uq_wealth_categories_type_name" json:"category_type"`
	Name         string       `gorm:"type:varchar(200);not null;uniqueIndex:uq_wealth_categories_type_name" json:"name"`
	Currency     string       `gorm:"type:varchar(3);not null" json:"currency"`
	IsLiability  bool         `gorm:"not null;default:false" json:"is_liability"`
}

// BeforeSave derives IsLiability for loans.
func (c *WealthCategory) BeforeSave(tx *gorm.DB) error {
	if c.CategoryType == CategoryTypeLoan {
		c.IsLiability = true
	}
	return nil
}

// WealthValue is the present value of a category on a date.
type WealthValue struct {
	Base
	WealthCategoryID string          `gorm:"type:uuid;not null;uniqueIndex:uq_wealth_values_category_date" json:"wealth_category_id"`
	ValueDate        time.Time       `gorm:"not null;uniqueIndex:uq_wealth_values_category_date;index:idx_wealth_values_date" json:"value_date"`
	PresentValue     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"present_value"`
	Note             string          `json:"note,omitempty"`

	Category WealthCategory `gorm:"foreignKey:WealthCategoryID" json:"category,omitempty"`
}

// TotalWealthSnapshot is the aggregated net wealth on one date.
//
// NetWealthHUF = PortfolioValueHUF + OtherAssetsHUF - TotalLiabilitiesHUF, and
// OtherAssetsHUF = CashHUF + PropertyHUF + PensionHUF + OtherHUF.
type TotalWealthSnapshot struct {
	Series
	SnapshotDate        time.Time       `gorm:"not null;uniqueIndex:uq_total_wealth_snapshots_date" json:"snapshot_date"`
	PortfolioValueHUF   decimal.Decimal `gorm:"column:portfolio_value_huf;type:numeric(20,2);not null" json:"portfolio_value_huf"`
	OtherAssetsHUF      decimal.Decimal `gorm:"column:other_assets_huf;type:numeric(20,2);not null" json:"other_assets_huf"`
	TotalLiabilitiesHUF decimal.Decimal `gorm:"column:total_liabilities_huf;type:numeric(20,2);not null" json:"total_liabilities_huf"`
	NetWealthHUF        decimal.Decimal `gorm:"column:net_wealth_huf;type:numeric(20,2);not null" json:"net_wealth_huf"`
	CashHUF             decimal.Decimal `gorm:"column:cash_huf;type:numeric(20,2);not null" json:"cash_huf"`
	PropertyHUF         decimal.Decimal `gorm:"column:property_huf;type:numeric(20,2);not null" json:"property_huf"`
	PensionHUF          decimal.Decimal `gorm:"column:pension_huf;type:numeric(20,2);not null" json:"pension_huf"`
	OtherHUF            decimal.Decimal `gorm:"column:other_huf;type:numeric(20,2);not null" json:"other_huf"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
