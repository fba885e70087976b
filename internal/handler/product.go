package handler

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stockpile/stockpile-go/internal/middleware"
	"github.com/stockpile/stockpile-go/internal/model"
	"github.com/stockpile/stockpile-go/internal/service"
)

// multipartOverhead is the body allowance for form fields and part headers
// on top of the image itself.
const multipartOverhead = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// formError is a client mistake in submitted form data.
type formError string

func (e formError) Error() string { return string(e) }

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service        *service.ProductService
	logger         *slog.Logger
	maxUploadBytes int64
	dev            bool
}

// NewProductHandler creates a new ProductHandler. Changes to products are
// logged to logger together with the acting user.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger, maxUploadBytes int64, dev bool) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger, maxUploadBytes: maxUploadBytes, dev: dev}
}

// HandleCreate handles POST /api/products requests.
func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := model.ProductInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Category:    r.PostFormValue("category"),
	}

	var err error
	if in.Quantity, err = parseQuantity(r.PostFormValue("quantity")); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Price, err = parsePrice(r.PostFormValue("price")); err != nil {
		h.writeError(w, r, err)
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), in, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logChange(r, "product created", p.ID)

	writeJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /api/products requests.
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.service.ListProducts(r.Context(), model.ProductQuery{
		Filter: model.ProductFilter{
			Name:        q.Get("name"),
			Category:    q.Get("category"),
			StockStatus: model.StockStatus(q.Get("stockStatus")),
		},
		// Non-numeric values fall back to the defaults.
		Page:  atoiOrZero(q.Get("page")),
		Limit: atoiOrZero(q.Get("limit")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /api/products/{id} requests.
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /api/products/{id} requests. Every field is optional.
func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.writeError(w, r, err)
		return
	}

	var patch model.ProductPatch
	if v, ok := formValue(r, "name"); ok {
		patch.Name = &v
	}
	if v, ok := formValue(r, "description"); ok {
		patch.Description = &v
	}
	if v, ok := formValue(r, "category"); ok {
		patch.Category = &v
	}
	if v, ok := formValue(r, "quantity"); ok {
		n, err := parseQuantity(v)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		patch.Quantity = &n
	}
	if v, ok := formValue(r, "price"); ok {
		f, err := parsePrice(v)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		patch.Price = &f
	}

	upload, err := readUpload(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), patch, upload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logChange(r, "product updated", p.ID)

	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logChange(r, "product deleted", id)

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Product deleted successfully."})
}

func (h *ProductHandler) logChange(r *http.Request, msg, productID string) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	h.logger.InfoContext(r.Context(), msg,
		"product_id", productID,
		"user_id", userID,
		"request_id", chimw.GetReqID(r.Context()),
	)
}

func (h *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe formError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorResponse(fe.Error()))
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrImageRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse("Image is required."))
	case errors.Is(err, service.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("Product not found."))
	default:
		serverError(w, r, err, h.dev)
	}
}

// parseForm reads a multipart (or urlencoded) body bounded by the upload limit.
func (h *ProductHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	err := r.ParseMultipartForm(h.maxUploadBytes)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return formError("invalid form data")
}

// readUpload returns the "image" file part, or nil when none was sent.
func readUpload(r *http.Request) (*model.Upload, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, formError("invalid image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formError("invalid image upload")
	}

	return &model.Upload{Filename: header.Filename, Data: data}, nil
}

func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func parseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, formError("quantity must be an integer >= 0")
	}
	return n, nil
}

func parsePrice(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, formError("price must be a positive number")
	}
	return f, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
