package validation

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func validationError(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidateCreate_Valid(t *testing.T) {
	changes, err := ValidateCreate(ProductInput{Fields: map[string]any{
		"title":       "  Pen ",
		"description": "Blue pen",
		"price":       "1.50",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Pen", *changes.Title)
	assert.Equal(t, "Blue pen", *changes.Description)
	assert.True(t, decimal.RequireFromString("1.5").Equal(*changes.Price))
	assert.Nil(t, changes.Image)
}

func TestValidateCreate_MissingFields(t *testing.T) {
	_, err := ValidateCreate(ProductInput{Fields: map[string]any{}})
	verr := validationError(t, err)

	assert.Equal(t, []string{"The title field is required."}, verr.Fields["title"])
	assert.Equal(t, []string{"The description field is required."}, verr.Fields["description"])
	assert.Equal(t, []string{"The price field is required."}, verr.Fields["price"])
	assert.False(t, verr.Has("image"))
	assert.Equal(t, "The description field is required. (and 2 more errors)", verr.Error())
}

func TestValidateCreate_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		field   string
		message string
	}{
		{"blank title", map[string]any{"title": "   ", "description": "d", "price": "1"}, "title", "The title field is required."},
		{"title not a string", map[string]any{"title": 12.0, "description": "d", "price": "1"}, "title", "The title field must be a string."},
		{"description null", map[string]any{"title": "t", "description": nil, "price": "1"}, "description", "The description field is required."},
		{"price not numeric", map[string]any{"title": "t", "description": "d", "price": "abc"}, "price", "The price field must be a number."},
		{"price boolean", map[string]any{"title": "t", "description": "d", "price": true}, "price", "The price field must be a number."},
		{"price negative", map[string]any{"title": "t", "description": "d", "price": "-0.01"}, "price", "The price field must be at least 0."},
		{"price too precise", map[string]any{"title": "t", "description": "d", "price": "1.999"}, "price", "The price field must have 0-2 decimal places."},
		{"price too precise json", map[string]any{"title": "t", "description": "d", "price": json.Number("0.001")}, "price", "The price field must have 0-2 decimal places."},
		{"price above column range", map[string]any{"title": "t", "description": "d", "price": "123456789"}, "price", "The price field must not be greater than 99999999.99."},
		{"price exponent above range", map[string]any{"title": "t", "description": "d", "price": json.Number("1e8")}, "price", "The price field must not be greater than 99999999.99."},
		{"price infinity", map[string]any{"title": "t", "description": "d", "price": "Infinity"}, "price", "The price field must be a number."},
		{"image given as text", map[string]any{"title": "t", "description": "d", "price": "1", "image": "photo.png"}, "image", "The image field must be an image."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateCreate(ProductInput{Fields: tt.fields})
			verr := validationError(t, err)
			assert.Equal(t, []string{tt.message}, verr.Fields[tt.field])
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestValidateCreate_NumericForms(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{json.Number("2.00"), "2"},
		{2.0, "2"},
		{"0", "0"},
		{json.Number("1.5e2"), "150"},
		{"1e3", "1000"},
		{".5", "0.5"},
		{"+3.25", "3.25"},
		{"1.500", "1.5"},
		{"99999999.99", "99999999.99"},
	}

	for _, tt := range tests {
		changes, err := ValidateCreate(ProductInput{Fields: map[string]any{
			"title": "t", "description": "d", "price": tt.raw,
		}})
		require.NoError(t, err, "price %v", tt.raw)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(*changes.Price), "price %v", tt.raw)
	}
}

func TestValidateCreate_Image(t *testing.T) {
	fields := func() map[string]any {
		return map[string]any{"title": "t", "description": "d", "price": "1"}
	}

	t.Run("png accepted", func(t *testing.T) {
		changes, err := ValidateCreate(ProductInput{Fields: fields(), Image: fileHeader(t, "pic.png", pngHeader)})
		require.NoError(t, err)
		require.NotNil(t, changes.Image)
		assert.Equal(t, "image/png", changes.Image.ContentType)
		assert.Equal(t, "png", changes.Image.Extension)
		assert.Equal(t, int64(len(pngHeader)), changes.Image.Size)
	})

	t.Run("text file rejected", func(t *testing.T) {
		_, err := ValidateCreate(ProductInput{Fields: fields(), Image: fileHeader(t, "notes.png", []byte("just some text"))})
		verr := validationError(t, err)
		assert.Equal(t, []string{"The image field must be an image."}, verr.Fields["image"])
	})

	t.Run("too large", func(t *testing.T) {
		data := make([]byte, MaxImageKilobytes*1024+1)
		copy(data, pngHeader)
		_, err := ValidateCreate(ProductInput{Fields: fields(), Image: fileHeader(t, "big.png", data)})
		verr := validationError(t, err)
		assert.Equal(t, []string{"The image field must not be greater than 2048 kilobytes."}, verr.Fields["image"])
	})

	t.Run("exactly at the limit", func(t *testing.T) {
		data := make([]byte, MaxImageKilobytes*1024)
		copy(data, pngHeader)
		_, err := ValidateCreate(ProductInput{Fields: fields(), Image: fileHeader(t, "edge.png", data)})
		assert.NoError(t, err)
	})
}

func TestValidateUpdate(t *testing.T) {
	t.Run("empty payload is valid", func(t *testing.T) {
		changes, err := ValidateUpdate(ProductInput{Fields: map[string]any{}})
		require.NoError(t, err)
		assert.Nil(t, changes.Title)
		assert.Nil(t, changes.Description)
		assert.Nil(t, changes.Price)
		assert.Nil(t, changes.Image)
	})

	t.Run("only price", func(t *testing.T) {
		changes, err := ValidateUpdate(ProductInput{Fields: map[string]any{"price": "9.99"}})
		require.NoError(t, err)
		assert.Nil(t, changes.Title)
		assert.True(t, decimal.RequireFromString("9.99").Equal(*changes.Price))
	})

	t.Run("present but blank title", func(t *testing.T) {
		_, err := ValidateUpdate(ProductInput{Fields: map[string]any{"title": ""}})
		verr := validationError(t, err)
		assert.Equal(t, []string{"The title field is required."}, verr.Fields["title"])
	})

	t.Run("one bad field rejects the whole request", func(t *testing.T) {
		changes, err := ValidateUpdate(ProductInput{Fields: map[string]any{"title": "New", "price": "cheap"}})
		assert.Nil(t, changes)
		verr := validationError(t, err)
		assert.True(t, verr.Has("price"))
		assert.False(t, verr.Has("title"))
	})
}
