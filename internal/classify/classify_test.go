package classify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jalshrestha/Outfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	response string
	err      error
	image    []byte
	format   string
}

func (f *fakeModel) Generate(ctx context.Context, image []byte, format, prompt string) (string, error) {
	f.image = image
	f.format = format
	return f.response, f.err
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.Category
		wantErr  bool
	}{
		{"JSON upper body", `{"category": "upper_body"}`, models.CategoryTop, false},
		{"JSON lower body", `{"category":"lower_body"}`, models.CategoryBottom, false},
		{"Code block", "```json\n{\"category\": \"shoes\"}\n```", models.CategoryShoes, false},
		{"Bare string", "lower_body", models.CategoryBottom, false},
		{"Quoted string", `"UPPER_BODY"`, models.CategoryTop, false},
		{"Unknown", `{"category": "hat"}`, "", true},
		{"Garbage", "I think it's a shirt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, err := ParseCategory(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, category)
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("\x89PNG fake"))
	}))
	defer srv.Close()

	model := &fakeModel{response: `{"category": "shoes"}`}
	c := New(model, time.Second)

	category, err := c.Classify(context.Background(), srv.URL+"/sneaker.png")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryShoes, category)
	assert.Equal(t, "png", model.format)
	assert.Equal(t, []byte("\x89PNG fake"), model.image)
}

func TestClassifier_Errors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg bytes"))
	}))
	defer ok.Close()

	t.Run("Invalid URL", func(t *testing.T) {
		c := New(&fakeModel{}, time.Second)
		_, err := c.Classify(context.Background(), "ftp://example.com/a.jpg")
		assert.ErrorIs(t, err, ErrInvalidImageURL)
	})

	t.Run("Image not found", func(t *testing.T) {
		c := New(&fakeModel{}, time.Second)
		_, err := c.Classify(context.Background(), notFound.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("Model failure", func(t *testing.T) {
		c := New(&fakeModel{err: errors.New("quota exceeded")}, time.Second)
		_, err := c.Classify(context.Background(), ok.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "webp", imageFormat("image/webp"))
	assert.Equal(t, "jpeg", imageFormat("image/jpeg; charset=binary"))
	assert.Equal(t, "jpeg", imageFormat("text/html"))
	assert.Equal(t, "jpeg", imageFormat(""))
}
