package bootstrap

import (
	"go_lecture_backend/platform/database"
	"go_lecture_backend/repository"
)

type Repositories struct {
	AssetRepository  repository.AssetRepository
	ModuleRepository repository.ModuleRepository
}

func NewRepositories(db *database.DB) *Repositories {
	sqlDB := db.GetDatabase()
	return &Repositories{
		AssetRepository:  repository.NewAssetRepository(sqlDB),
		ModuleRepository: repository.NewModuleRepository(sqlDB),
	}
}
