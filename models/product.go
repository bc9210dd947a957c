package models

import (
	"context"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/shopspring/decimal"
)

// redis key for the unfiltered catalog listing, invalidated on import
const productDirectoryCacheKey = "product_directory"

// Product is one catalog item. Rate and Per carry the price convention the
// valuator divides by (rate per `per` units).
type Product struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null;index" json:"name" binding:"required"`
	UnitType  UnitType        `gorm:"type:enum('U','N','Box');default:'U'" json:"unit_type"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	Per       int             `gorm:"not null;default:1" json:"per"`
	PerCase   int             `gorm:"not null;default:1" json:"per_case"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetProducts lists catalog items, optionally filtered by name. The
// unfiltered listing is served from redis when possible: the catalog only
// changes via the importer, which drops the key.
func GetProducts(ctx context.Context, name *string) ([]*Product, error) {
	filtered := name != nil && len(*name) > 0

	if !filtered {
		var cached []*Product
		if hit, err := config.GetRedisObject(productDirectoryCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if filtered {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var products []*Product
	if err := dbCtx.Order("name").Limit(config.SearchLimit * 10).Find(&products).Error; err != nil {
		return nil, err
	}

	if !filtered {
		_ = config.SetRedisObject(productDirectoryCacheKey, products, 5*time.Minute)
	}
	return products, nil
}

// InvalidateProductDirectoryCache drops the cached catalog listing.
func InvalidateProductDirectoryCache() error {
	return config.RemoveRedisKey(productDirectoryCacheKey)
}
