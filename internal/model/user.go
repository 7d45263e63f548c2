package model

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role is the closed set of user roles. Registration may never create admin.
type Role string

const (
	RoleFarmer      Role = "farmer"
	RoleTransporter Role = "transporter"
	RoleManager     Role = "manager"
	RoleModerator   Role = "moderator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleTransporter, RoleManager, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system. The relayer signs ledger
// transactions on behalf of users, so no per-user key material is stored —
// WalletAddress is informational only.
type User struct {
	BaseModel
	Email       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName    string `gorm:"type:varchar(255);not null" json:"full_name" validate:"required"`
	Phone       string `gorm:"type:varchar(20);index" json:"phone" validate:"required"` // Join key to Product.FarmPhone
	Address     string `gorm:"type:varchar(255)" json:"address"`
	CompanyName string `gorm:"type:varchar(255)" json:"company_name"` // Display override for transporter/retailer
	Role        Role   `gorm:"type:varchar(20);default:'farmer'" json:"role"`
	Avatar      string `gorm:"type:text" json:"avatar"`

	// Optional, globally unique when present (NULL rows don't collide)
	WalletAddress *string `gorm:"type:varchar(42);uniqueIndex" json:"wallet_address,omitempty"`

	// Push delivery address, optional
	FCMToken string `gorm:"type:text" json:"-"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// DisplayName prefers the company name over the personal name. Transporters
// and retail managers operate under their company identity.
func (u *User) DisplayName() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.FullName
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CompanyName   string    `json:"company_name"`
	Role          Role      `json:"role"`
	Avatar        string    `json:"avatar"`
	WalletAddress string    `json:"wallet_address,omitempty"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Address:     u.Address,
		CompanyName: u.CompanyName,
		Role:        u.Role,
		Avatar:      u.Avatar,
	}
	if u.WalletAddress != nil {
		resp.WalletAddress = *u.WalletAddress
	}
	return resp
}
