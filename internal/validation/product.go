package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/h2non/filetype"
	"github.com/shopspring/decimal"
)

// MaxImageKilobytes is the largest accepted image upload.
const MaxImageKilobytes = 2048

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldImage       = "image"
)

var validate = validator.New()

// ProductInput is the raw request payload. Fields holds the submitted values
// keyed by name (strings for form requests, decoded JSON values otherwise);
// a key that is absent was not supplied. Image is the uploaded file, if any.
type ProductInput struct {
	Fields map[string]any
	Image  *multipart.FileHeader
}

// ValidateCreate checks a create request. Title, description and price are
// required; the image is optional.
func ValidateCreate(in ProductInput) (*models.ProductChanges, error) {
	return validateProduct(in, true)
}

// ValidateUpdate checks an update request. Every field is optional, but a
// supplied field must satisfy the same rules as on create.
func ValidateUpdate(in ProductInput) (*models.ProductChanges, error) {
	return validateProduct(in, false)
}

func validateProduct(in ProductInput, create bool) (*models.ProductChanges, error) {
	verr := newError()
	changes := &models.ProductChanges{}

	changes.Title = requiredString(in.Fields, fieldTitle, create, verr)
	changes.Description = requiredString(in.Fields, fieldDescription, create, verr)
	changes.Price = price(in.Fields, create, verr)
	changes.Image = image(in, verr)

	if !verr.empty() {
		return nil, verr
	}
	return changes, nil
}

func requiredString(fields map[string]any, name string, create bool, verr *Error) *string {
	raw, present := fields[name]
	if !present && !create {
		return nil
	}
	if isBlank(raw) {
		verr.Add(name, msgRequired(name))
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		verr.Add(name, fmt.Sprintf("The %s field must be a string.", name))
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func price(fields map[string]any, create bool, verr *Error) *decimal.Decimal {
	raw, present := fields[fieldPrice]
	if !present && !create {
		return nil
	}
	if isBlank(raw) {
		verr.Add(fieldPrice, msgRequired(fieldPrice))
		return nil
	}

	var text string
	switch v := raw.(type) {
	case string:
		text = strings.TrimSpace(v)
	case json.Number:
		text = v.String()
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		verr.Add(fieldPrice, "The price field must be a number.")
		return nil
	}

	// decimal accepts the same literals as a numeric rule: "1.50", ".5", "1.5e2".
	d, err := decimal.NewFromString(text)
	if err != nil {
		verr.Add(fieldPrice, "The price field must be a number.")
		return nil
	}
	if d.IsNegative() {
		verr.Add(fieldPrice, "The price field must be at least 0.")
		return nil
	}
	if d.GreaterThan(models.MaxPrice) {
		verr.Add(fieldPrice, fmt.Sprintf("The price field must not be greater than %s.", models.MaxPrice.StringFixed(models.PriceScale)))
		return nil
	}
	if decimalPlaces(d) > models.PriceScale {
		verr.Add(fieldPrice, fmt.Sprintf("The price field must have 0-%d decimal places.", models.PriceScale))
		return nil
	}
	return &d
}

// decimalPlaces counts significant fractional digits, so "1.50" and "1.5e2"
// pass a two-place limit while "1.999" does not.
func decimalPlaces(d decimal.Decimal) int32 {
	if d.Exponent() >= 0 {
		return 0
	}
	places := -d.Exponent()
	for places > 0 && d.Equal(d.Truncate(places-1)) {
		places--
	}
	return places
}

func image(in ProductInput, verr *Error) *models.ImageUpload {
	if in.Image == nil {
		// A non-empty, non-file "image" value is not an upload.
		if raw, present := in.Fields[fieldImage]; present && !isBlank(raw) {
			verr.Add(fieldImage, msgImage)
		}
		return nil
	}

	if err := validate.Var(in.Image.Size, fmt.Sprintf("lte=%d", MaxImageKilobytes*1024)); err != nil {
		verr.Add(fieldImage, fmt.Sprintf("The image field must not be greater than %d kilobytes.", MaxImageKilobytes))
		return nil
	}

	data, err := readUpload(in.Image)
	if err != nil {
		verr.Add(fieldImage, "The image failed to upload.")
		return nil
	}
	if !filetype.IsImage(data) {
		verr.Add(fieldImage, msgImage)
		return nil
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		verr.Add(fieldImage, msgImage)
		return nil
	}

	return &models.ImageUpload{
		Filename:    in.Image.Filename,
		ContentType: kind.MIME.Value,
		Extension:   kind.Extension,
		Size:        int64(len(data)),
		Data:        data,
	}
}

const msgImage = "The image field must be an image."

func msgRequired(name string) string {
	return fmt.Sprintf("The %s field is required.", name)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxImageKilobytes*1024+1))
}
