package repository

import "gorm.io/gorm"

// Repository aggregates all data-access interfaces.
type Repository struct {
	Period PeriodRepository
}

// NewRepository builds the Repository aggregate.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Period: NewPeriodRepo(db),
	}
}
