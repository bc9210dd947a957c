package models

import (
	"context"
	"errors"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"gorm.io/gorm"
)

// Party is a billing counterparty from the party directory. Field values
// arriving from the legacy store are normalized by utils.NormalizeRecord
// before they get here; alias spellings never reach this model.
type Party struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"party_name" binding:"required"`
	Address   string    `gorm:"size:500" json:"party_address"`
	Gstin     string    `gorm:"size:20" json:"party_gstin"`
	AgentName string    `gorm:"size:100;index" json:"agent_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetParty(ctx context.Context, id int) (*Party, error) {
	db := config.GetDB()
	var party Party
	if err := db.WithContext(ctx).First(&party, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("party not found")
		}
		return nil, err
	}
	return &party, nil
}

func GetParties(ctx context.Context, name *string) ([]*Party, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	var parties []*Party
	if err := dbCtx.Order("name").Find(&parties).Error; err != nil {
		return nil, err
	}
	return parties, nil
}
