package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// alertModel keeps an internal autoincrement key so listings follow insertion order.
type alertModel struct {
	ID               uint    `gorm:"primaryKey"`
	AlertID          string  `gorm:"uniqueIndex;size:64;not null"`
	CoinID           string  `gorm:"index:idx_alerts_coin_state,priority:1;not null"`
	CoinSymbol       string  `gorm:"not null"`
	CoinName         string  `gorm:"not null"`
	ConditionKind    string  `gorm:"size:16;not null"`
	TargetPrice      *string `gorm:"size:64"`
	ChangePercentage *string `gorm:"size:64"`
	CurrentPrice     *string `gorm:"size:64"`
	Active           bool    `gorm:"index:idx_alerts_coin_state,priority:2"`
	Triggered        bool    `gorm:"index:idx_alerts_coin_state,priority:3"`
	Channels         datatypes.JSON
	TriggeredAt      *time.Time
	Message          string
	Note             string `gorm:"size:500"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (alertModel) TableName() string {
	return "alerts"
}
