package service

import (
	"context"

	"voice-ordering-be/internal/dto"
	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/repository/contract"
)

type IMenuService interface {
	GetAll(ctx context.Context) ([]dto.MenuItemResponse, error)
	GetCategories(ctx context.Context) (*dto.MenuCategoriesResponse, error)
	GetByCategory(ctx context.Context, category string) ([]dto.MenuItemResponse, error)
}

type menuService struct {
	menuRepository contract.MenuItemRepository
}

func NewMenuService(menuRepository contract.MenuItemRepository) IMenuService {
	return &menuService{
		menuRepository: menuRepository,
	}
}

func (s *menuService) GetAll(ctx context.Context) ([]dto.MenuItemResponse, error) {
	items, err := s.menuRepository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toMenuItemResponses(items), nil
}

func (s *menuService) GetCategories(ctx context.Context) (*dto.MenuCategoriesResponse, error) {
	categories, err := s.menuRepository.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.MenuCategoriesResponse{Categories: categories}, nil
}

func (s *menuService) GetByCategory(ctx context.Context, category string) ([]dto.MenuItemResponse, error) {
	items, err := s.menuRepository.FindByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return toMenuItemResponses(items), nil
}

func toMenuItemResponse(item *entity.MenuItem, quantity int) dto.MenuItemResponse {
	return dto.MenuItemResponse{
		Id:            item.Id,
		Name:          item.Name,
		Description:   item.Description,
		Price:         item.Price,
		Category:      item.Category,
		Tags:          item.Tags,
		ImageURL:      item.ImageURL,
		NameDe:        item.NameDe,
		NameCs:        item.NameCs,
		DescriptionDe: item.DescriptionDe,
		DescriptionCs: item.DescriptionCs,
		Quantity:      quantity,
	}
}

func toMenuItemResponses(items []*entity.MenuItem) []dto.MenuItemResponse {
	out := make([]dto.MenuItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toMenuItemResponse(item, 0))
	}
	return out
}
