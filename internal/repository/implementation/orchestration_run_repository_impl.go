package implementation

import (
	"context"
	"errors"

	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/mapper"
	"orchestration-agent/internal/model"
	"orchestration-agent/internal/repository/contract"
	"orchestration-agent/internal/repository/specification"

	"gorm.io/gorm"
)

type OrchestrationRunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OrchestrationRunMapper
}

func NewOrchestrationRunRepository(db *gorm.DB) contract.OrchestrationRunRepository {
	return &OrchestrationRunRepositoryImpl{
		db:     db,
		mapper: mapper.NewOrchestrationRunMapper(),
	}
}

func (r *OrchestrationRunRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *OrchestrationRunRepositoryImpl) Create(ctx context.Context, run *entity.OrchestrationRun) error {
	m, err := r.mapper.ToModel(run)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*run = *saved
	return nil
}

func (r *OrchestrationRunRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.OrchestrationRun, error) {
	var m model.OrchestrationRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *OrchestrationRunRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.OrchestrationRun, error) {
	var models []*model.OrchestrationRun
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}
