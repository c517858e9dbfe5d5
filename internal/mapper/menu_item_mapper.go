package mapper

import (
	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/model"

	"gorm.io/datatypes"
)

type MenuItemMapper struct{}

func NewMenuItemMapper() *MenuItemMapper {
	return &MenuItemMapper{}
}

func (m *MenuItemMapper) ToEntity(item *model.MenuItem) *entity.MenuItem {
	if item == nil {
		return nil
	}

	return &entity.MenuItem{
		Id:            item.Id,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		Category:      item.Category,
		Tags:          []string(item.Tags),
		ImageURL:      item.ImageURL,
		NameDe:        item.NameDe,
		NameCs:        item.NameCs,
		DescriptionDe: item.DescriptionDe,
		DescriptionCs: item.DescriptionCs,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (m *MenuItemMapper) ToModel(item *entity.MenuItem) *model.MenuItem {
	if item == nil {
		return nil
	}

	return &model.MenuItem{
		Id:            item.Id,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		Category:      item.Category,
		Tags:          datatypes.NewJSONSlice(item.Tags),
		ImageURL:      item.ImageURL,
		NameDe:        item.NameDe,
		NameCs:        item.NameCs,
		DescriptionDe: item.DescriptionDe,
		DescriptionCs: item.DescriptionCs,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (m *MenuItemMapper) ToEntities(items []*model.MenuItem) []*entity.MenuItem {
	entities := make([]*entity.MenuItem, len(items))
	for i, item := range items {
		entities[i] = m.ToEntity(item)
	}
	return entities
}
