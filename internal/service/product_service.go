package service

import (
	"context"
	"errors"
	"sort"

	"agrolink/internal/auth"
	"agrolink/internal/domain"
	"agrolink/internal/repository"
)

// ProductService CRUD каталога и публичная витрина с джойном продавца
type ProductService struct {
	products  repository.ProductRepository
	users     repository.UserRepository
	locations repository.LocationRepository
}

func NewProductService(products repository.ProductRepository, users repository.UserRepository, locations repository.LocationRepository) *ProductService {
	return &ProductService{products: products, users: users, locations: locations}
}

// ProductInput поля товара, задаваемые производителем
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int64
	Category    string
	ImageURL    string
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return Validationf("name, price y stock son obligatorios")
	}
	if in.Price < 0 || in.Stock < 0 {
		return Validationf("price y stock no pueden ser negativos")
	}
	return nil
}

// Create создаёт товар за вызывающим производителем
func (s *ProductService) Create(ctx context.Context, actor auth.Identity, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		ProducerID:  actor.UserID,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update правит товар; чужой товар неотличим от несуществующего
func (s *ProductService) Update(ctx context.Context, actor auth.Identity, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.ProducerID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrProductNotFound
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = in.Category
	p.ImageURL = in.ImageURL
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete удаляет товар вызывающего производителя
func (s *ProductService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if p.ProducerID != actor.UserID && !actor.IsAdmin() {
		return ErrProductNotFound
	}
	return s.products.Delete(ctx, id)
}

// Mine товары вызывающего производителя, новые сверху
func (s *ProductService) Mine(ctx context.Context, actor auth.Identity) ([]domain.Product, error) {
	return s.products.List(ctx, repository.ProductFilter{ProducerID: actor.UserID})
}

// ProducerPublic публичные данные продавца в витрине
type ProducerPublic struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ProductView товар, обогащённый данными и адресом продавца
type ProductView struct {
	domain.Product
	ProducerPublic   ProducerPublic   `json:"producerPublic"`
	ProducerLocation *domain.Location `json:"producerLocation,omitempty"`
}

// ProductPage страница витрины
type ProductPage struct {
	Items      []ProductView `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// PublicFilter фильтры публичного листинга
type PublicFilter struct {
	Category string
	Region   string
	Commune  string
	Page     int
	Limit    int
}

// ListPublic витрина: фильтр по категории в хранилище, затем батч-джойн
// продавцов и адресов, фильтр по региону/коммуне и пагинация
func (s *ProductService) ListPublic(ctx context.Context, f PublicFilter) (*ProductPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 9
	}
	if limit > 50 {
		limit = 50
	}

	products, err := s.products.List(ctx, repository.ProductFilter{Category: f.Category})
	if err != nil {
		return nil, err
	}

	// batched join against users and locations keyed by distinct producer ids
	idSet := make(map[string]struct{})
	for _, p := range products {
		idSet[p.ProducerID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	owners, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	locs, err := s.locations.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		loc, hasLoc := locs[p.ProducerID]
		if f.Region != "" && (!hasLoc || loc.Region != f.Region) {
			continue
		}
		if f.Commune != "" && (!hasLoc || loc.Commune != f.Commune) {
			continue
		}
		v := ProductView{Product: p}
		if u, ok := owners[p.ProducerID]; ok {
			v.ProducerPublic = ProducerPublic{Name: u.Name, Phone: u.Phone}
		}
		if hasLoc {
			cp := loc
			v.ProducerLocation = &cp
		}
		views = append(views, v)
	}

	total := len(views)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return &ProductPage{
		Items:      views[start:end],
		Page:       page,
		PageSize:   limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GetPublic публичная карточка товара с данными продавца
func (s *ProductService) GetPublic(ctx context.Context, id string) (*ProductView, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := ProductView{Product: *p}
	if u, err := s.users.GetByID(ctx, p.ProducerID); err == nil {
		v.ProducerPublic = ProducerPublic{Name: u.Name, Phone: u.Phone}
	}
	if loc, err := s.locations.GetByUserID(ctx, p.ProducerID); err == nil {
		v.ProducerLocation = loc
	}
	return &v, nil
}

// Categories отсортированные непустые категории каталога
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}
