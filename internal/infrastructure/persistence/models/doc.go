// Package models contains the GORM persistence models. Each model maps one
// database table to its domain entity via ToDomain/FromDomain converters so
// the domain packages stay free of persistence tags.
package models
