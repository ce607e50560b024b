package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// User is the login identity. Username is the handle the OTP was delivered to.
type User struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username    string     `gorm:"column:username;not null;uniqueIndex"`
	Email       string     `gorm:"column:email;not null;default:''"`
	FirstName   string     `gorm:"column:first_name;not null;default:''"`
	LastName    string     `gorm:"column:last_name;not null;default:''"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// UserProfile carries account metadata, one per user.
type UserProfile struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Name        *string       `gorm:"column:name"`
	Email       *string       `gorm:"column:email"`
	DOB         time.Time     `gorm:"column:dob;type:date;not null"`
	IsActive    bool          `gorm:"column:is_active;not null"`
	Whitelisted bool          `gorm:"column:whitelisted;not null"`
	Blacklisted bool          `gorm:"column:blacklisted;not null"`
	Addresses   []UserAddress `gorm:"foreignKey:ProfileID"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *UserProfile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// UserAddress is a saved postal address, unique by phone per profile.
type UserAddress struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProfileID   uuid.UUID         `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:ux_user_addresses_profile_phone"`
	AddressType enums.AddressType `gorm:"column:address_type;not null"`
	POCName     string            `gorm:"column:poc_name;not null"`
	Phone       string            `gorm:"column:phone;not null;uniqueIndex:ux_user_addresses_profile_phone"`
	Line1       string            `gorm:"column:line_1;not null"`
	Line2       *string           `gorm:"column:line_2"`
	City        string            `gorm:"column:city;not null"`
	State       string            `gorm:"column:state;not null"`
	Pin         int               `gorm:"column:pin;not null"`
	Landmark    *string           `gorm:"column:landmark"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *UserAddress) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
