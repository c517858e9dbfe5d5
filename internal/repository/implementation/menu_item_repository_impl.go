package implementation

import (
	"context"
	"strings"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/mapper"
	"voice-ordering-be/internal/model"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/internal/repository/scope"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MenuItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MenuItemMapper
}

func NewMenuItemRepository(db *gorm.DB) contract.MenuItemRepository {
	return &MenuItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewMenuItemMapper(),
	}
}

func (r *MenuItemRepositoryImpl) FindAll(ctx context.Context) ([]*entity.MenuItem, error) {
	var models []*model.MenuItem
	if err := r.db.WithContext(ctx).Scopes(scope.CatalogOrder).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MenuItemRepositoryImpl) FindByCategory(ctx context.Context, category string) ([]*entity.MenuItem, error) {
	var models []*model.MenuItem
	if err := r.db.WithContext(ctx).Where("category = ?", category).Scopes(scope.CatalogOrder).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MenuItemRepositoryImpl) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *MenuItemRepositoryImpl) FindByIds(ctx context.Context, ids []uint) ([]*entity.MenuItem, error) {
	if len(ids) == 0 {
		return []*entity.MenuItem{}, nil
	}
	var models []*model.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MenuItemRepositoryImpl) FindNamesByIds(ctx context.Context, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Where("id IN ?", ids).
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func lowered(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(strings.TrimSpace(n))
	}
	return out
}

func (r *MenuItemRepositoryImpl) FindIdsByNames(ctx context.Context, names []string) ([]uint, error) {
	if len(names) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Where("LOWER(name) IN ?", lowered(names)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MenuItemRepositoryImpl) FindIdsByNamesInSet(ctx context.Context, names []string, candidateIds []uint) ([]uint, error) {
	if len(names) == 0 || len(candidateIds) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Where("LOWER(name) IN ?", lowered(names)).
		Where("id IN ?", candidateIds).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MenuItemRepositoryImpl) SearchNearest(ctx context.Context, embedding []float32, excludeIds []uint, limit int) ([]*contract.ScoredMenuItem, error) {
	if limit <= 0 {
		limit = 20
	}

	type row struct {
		model.MenuItem
		Distance float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	// pgvector cosine distance operator: embedding <=> query
	query := r.db.WithContext(ctx).
		Table("menu_items").
		Select("menu_items.*, embedding <=> ? AS distance", queryVector).
		Scopes(scope.WithEmbedding)
	if len(excludeIds) > 0 {
		query = query.Where("id NOT IN ?", excludeIds)
	}
	err := query.
		Order("distance").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredMenuItem, len(rows))
	for i, res := range rows {
		scored[i] = &contract.ScoredMenuItem{
			Item:     r.mapper.ToEntity(&res.MenuItem),
			Distance: res.Distance,
		}
	}
	return scored, nil
}

func (r *MenuItemRepositoryImpl) Save(ctx context.Context, item *entity.MenuItem) error {
	m := r.mapper.ToModel(item)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "price", "category", "tags", "image_url",
				"name_de", "name_cs", "description_de", "description_cs",
			}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	item.Id = m.Id
	return nil
}

func (r *MenuItemRepositoryImpl) UpdateEmbedding(ctx context.Context, id uint, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	return r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Where("id = ?", id).
		Update("embedding", &vec).Error
}

func (r *MenuItemRepositoryImpl) FindIdsMissingEmbedding(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.MenuItem{}).
		Where("embedding IS NULL").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
