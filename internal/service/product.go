package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/stockpile/stockpile-go/internal/model"
	"github.com/stockpile/stockpile-go/internal/repository"
	"github.com/stockpile/stockpile-go/internal/storage"
)

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrImageRequired   = errors.New("image required")
	ErrInvalidImage    = errors.New("invalid image")
	ErrProductNotFound = errors.New("product not found")
)

// imageTypes maps accepted image MIME types to the extension they are stored under.
var imageTypes = []struct {
	mime string
	ext  string
}{
	{"image/jpeg", ".jpg"},
	{"image/png", ".png"},
	{"image/gif", ".gif"},
	{"image/webp", ".webp"},
}

// ProductStore is the product persistence ProductService depends on.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id string) (*model.Product, error)
	Find(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error)
}

// ProductService handles product CRUD and keeps each product's image file in
// step with its record.
type ProductService struct {
	products      ProductStore
	images        storage.ImageStore
	logger        *slog.Logger
	validate      *validator.Validate
	maxImageBytes int64
}

// NewProductService creates a new ProductService. maxImageBytes <= 0 disables
// the size check.
func NewProductService(products ProductStore, images storage.ImageStore, logger *slog.Logger, maxImageBytes int64) *ProductService {
	return &ProductService{
		products:      products,
		images:        images,
		logger:        logger,
		validate:      newValidator(),
		maxImageBytes: maxImageBytes,
	}
}

// CreateProduct validates in, stores the image and persists the product.
// The stored image is removed again if the record cannot be created.
func (s *ProductService) CreateProduct(ctx context.Context, in model.ProductInput, upload *model.Upload) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, describeValidation(err))
	}
	if upload == nil {
		return nil, ErrImageRequired
	}

	imagePath, err := s.storeImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Category:    in.Category,
		Image:       imagePath,
	}
	if err := s.products.Create(ctx, p); err != nil {
		s.removeImage(ctx, imagePath, "create failed")
		return nil, fmt.Errorf("create product: %w", err)
	}

	return p, nil
}

// ListProducts returns one page of matching products with pagination metadata.
func (s *ProductService) ListProducts(ctx context.Context, q model.ProductQuery) (model.ProductPage, error) {
	q = q.Normalized()

	products, total, err := s.products.Find(ctx, q)
	if err != nil {
		return model.ProductPage{}, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	limit := int64(q.Limit)
	return model.ProductPage{
		Products:   products,
		Total:      total,
		Page:       q.Page,
		TotalPages: int((total + limit - 1) / limit),
	}, nil
}

// GetProduct returns a single product.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, productError("get product", err)
	}
	return p, nil
}

// UpdateProduct applies patch and, when upload is non-nil, swaps the product's
// image. A newly stored image never outlives a failed update, and the old
// image is removed only after the update succeeds.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch model.ProductPatch, upload *model.Upload) (*model.Product, error) {
	patch.Name = trimmed(patch.Name)
	patch.Description = trimmed(patch.Description)
	patch.Category = trimmed(patch.Category)
	// The image path is only ever set from an upload.
	patch.Image = nil

	if err := s.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProduct, describeValidation(err))
	}

	if upload == nil {
		p, err := s.products.Update(ctx, id, patch)
		if err != nil {
			return nil, productError("update product", err)
		}
		return p, nil
	}

	newImage, err := s.storeImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		s.removeImage(ctx, newImage, "product lookup failed")
		return nil, productError("update product", err)
	}

	patch.Image = &newImage
	updated, err := s.products.Update(ctx, id, patch)
	if err != nil {
		s.removeImage(ctx, newImage, "update failed")
		return nil, productError("update product", err)
	}

	if current.Image != "" && current.Image != newImage {
		s.removeImage(ctx, current.Image, "replaced")
	}

	return updated, nil
}

// DeleteProduct removes the product and then its image file.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.products.Delete(ctx, id)
	if err != nil {
		return productError("delete product", err)
	}

	s.removeImage(ctx, p.Image, "product deleted")
	return nil
}

// storeImage checks the upload's size and sniffed type and saves it.
func (s *ProductService) storeImage(ctx context.Context, upload *model.Upload) (string, error) {
	if len(upload.Data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidImage)
	}
	if s.maxImageBytes > 0 && int64(len(upload.Data)) > s.maxImageBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidImage, s.maxImageBytes)
	}

	detected := mimetype.Detect(upload.Data)
	for _, t := range imageTypes {
		if detected.Is(t.mime) {
			path, err := s.images.Save(ctx, t.mime, t.ext, upload.Data)
			if err != nil {
				return "", fmt.Errorf("store image: %w", err)
			}
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, detected.String())
}

// removeImage deletes an image file, logging instead of failing. It keeps
// going when the request context has already been cancelled.
func (s *ProductService) removeImage(ctx context.Context, path, reason string) {
	if path == "" {
		return
	}

	if err := s.images.Delete(context.WithoutCancel(ctx), path); err != nil {
		s.logger.Warn("image cleanup failed", "path", path, "reason", reason, "error", err)
	}
}

func productError(op string, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
