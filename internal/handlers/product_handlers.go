package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"catalog/internal/common"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	msgProductCreated  = "Product added successfully!"
	msgProductUpdated  = "Product updated successfully!"
	msgProductDeleted  = "Product deleted successfully"
	msgProductNotFound = "Product not found!"
)

// productFields are the request keys read into a ProductInput.
var productFields = []string{"title", "description", "price", "image"}

// ProductHandlers handles HTTP requests for products
type ProductHandlers struct {
	productService services.ProductService
	log            zerolog.Logger
}

// NewProductHandlers creates a new product handlers instance
func NewProductHandlers(productService services.ProductService, log zerolog.Logger) *ProductHandlers {
	return &ProductHandlers{
		productService: productService,
		log:            log.With().Str("component", "product_handlers").Logger(),
	}
}

// Register mounts the product routes on g. Mutating routes run behind guard
// when one is given.
func (h *ProductHandlers) Register(g *echo.Group, guard ...echo.MiddlewareFunc) {
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProduct)
	g.POST("/products", h.CreateProduct, guard...)
	g.PUT("/products/:id", h.UpdateProduct, guard...)
	g.PATCH("/products/:id", h.UpdateProduct, guard...)
	g.DELETE("/products/:id", h.DeleteProduct, guard...)
}

// ListProducts godoc
// @Summary List products
// @Description Returns every product, unpaginated.
// @Tags products
// @Produce json
// @Success 200 {array} models.Product
// @Router /products [get]
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	products, err := h.productService.List(c.Request().Context())
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param price formData number true "Price, at least 0"
// @Param image formData file false "Image, at most 2048 KiB"
// @Success 201 {object} common.ProductResponse
// @Failure 422 {object} common.ValidationErrorResponse
// @Security BearerAuth
// @Router /products [post]
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	input, err := bindProductInput(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Create(c.Request().Context(), input)
	if err != nil {
		return h.handleError(c, err)
	}
	return common.SendProduct(c, http.StatusCreated, msgProductCreated, product)
}

// GetProduct godoc
// @Summary Show a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} common.MessageResponse
// @Router /products/{id} [get]
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, ok := parseProductID(c)
	if !ok {
		return common.SendNotFoundError(c, msgProductNotFound)
	}

	product, err := h.productService.Show(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct godoc
// @Summary Update a product
// @Description Supplied fields replace the stored ones; omitted fields are kept.
// @Description A new image replaces and deletes the previous one.
// @Tags products
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param price formData number false "Price, at least 0"
// @Param image formData file false "Image, at most 2048 KiB"
// @Success 200 {object} common.ProductResponse
// @Failure 404 {object} common.MessageResponse
// @Failure 422 {object} common.ValidationErrorResponse
// @Security BearerAuth
// @Router /products/{id} [put]
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	id, ok := parseProductID(c)
	if !ok {
		return common.SendNotFoundError(c, msgProductNotFound)
	}

	input, err := bindProductInput(c)
	if err != nil {
		return err
	}

	product, err := h.productService.Update(c.Request().Context(), id, input)
	if err != nil {
		return h.handleError(c, err)
	}
	return common.SendProduct(c, http.StatusOK, msgProductUpdated, product)
}

// DeleteProduct godoc
// @Summary Delete a product and its image
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} common.MessageResponse
// @Failure 404 {object} common.MessageResponse
// @Security BearerAuth
// @Router /products/{id} [delete]
func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	id, ok := parseProductID(c)
	if !ok {
		return common.SendNotFoundError(c, msgProductNotFound)
	}

	if err := h.productService.Destroy(c.Request().Context(), id); err != nil {
		return h.handleError(c, err)
	}
	return common.SendMessage(c, http.StatusOK, msgProductDeleted)
}

func (h *ProductHandlers) handleError(c echo.Context, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return common.SendValidationError(c, verr)
	case errors.Is(err, repositories.ErrProductNotFound):
		return common.SendNotFoundError(c, msgProductNotFound)
	}

	h.log.Error().Err(err).Str("method", c.Request().Method).Str("path", c.Path()).Msg("product request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// parseProductID reads the :id parameter. A value that is not a UUID cannot
// name an existing product, so callers answer it with a 404.
func parseProductID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// bindProductInput collects the product fields from a multipart, urlencoded
// or JSON body. Keys that were not sent stay absent from Fields.
func bindProductInput(c echo.Context) (validation.ProductInput, error) {
	input := validation.ProductInput{Fields: make(map[string]any)}
	req := c.Request()

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	switch mediaType {
	case echo.MIMEMultipartForm:
		form, err := c.MultipartForm()
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart body")
		}
		copyFormValues(input.Fields, form.Value)
		if files := form.File["image"]; len(files) > 0 {
			input.Image = files[0]
		}

	case echo.MIMEApplicationForm:
		values, err := c.FormParams()
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "Invalid form body")
		}
		copyFormValues(input.Fields, values)

	case echo.MIMEApplicationJSON:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return input, nil
		}
		var payload map[string]any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return input, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
		}
		for _, key := range productFields {
			if v, ok := payload[key]; ok {
				input.Fields[key] = v
			}
		}
	}

	return input, nil
}

func copyFormValues(dst map[string]any, values map[string][]string) {
	for _, key := range productFields {
		if v, ok := values[key]; ok && len(v) > 0 {
			dst[key] = v[0]
		}
	}
}
