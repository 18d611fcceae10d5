// Package models holds the GORM rows behind the till ledger. Domain types in
// internal/domain carry no tags; each row type has ToDomain/FromDomain
// mappers used by the repositories in the parent package.
//
// Amount tables keyed by currency or tender (floats, counted cash, totals)
// are stored as JSON columns, see tables.go. Money columns are decimal(18,2),
// rates decimal(24,8).
package models
