package models

import "github.com/Ghodjeezreal/paygate/src/types"

type User struct {
	ID       uint       `gorm:"primarykey" json:"id"`
	Username string     `gorm:"uniqueIndex" json:"username"`
	Password string     `json:"-"`
	FullName string     `json:"full_name,omitempty"`
	Role     types.Role `json:"role"`

	types.Timestamps
}
