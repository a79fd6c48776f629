// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of ORM tags; each model carries a ToDomain method
// and a FromDomain constructor used by the repositories.
package models
