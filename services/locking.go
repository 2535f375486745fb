package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate okunan satıra yazma kilidi koyar.
// sqlite tek yazarlıdır ve FOR UPDATE sözdizimini tanımaz; o diyalektte
// kilit cümlesi eklenmez, seri yazma garantisini motorun kendisi verir.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
