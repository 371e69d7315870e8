package Models

import (
	"gorm.io/gorm"
)

type Site struct {
	gorm.Model
	Name     string `json:"name" gorm:"not null;uniqueIndex"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
}
