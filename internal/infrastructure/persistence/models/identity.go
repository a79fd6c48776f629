package models

import (
	"github.com/stockledger/backend/internal/domain/identity"
)

// UserModel is the persistence model for accounts
type UserModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(100);not null"`
	Email string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Plan  string `gorm:"type:varchar(20);not null;default:'stock'"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		Plan:       identity.Plan(m.Plan),
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Name:  u.Name,
		Email: u.Email,
		Plan:  string(u.Plan),
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
