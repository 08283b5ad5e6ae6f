// Package category infers an outfit category from free-text titles.
//
// The inference is a keyword heuristic, not a classifier: the first keyword
// set with a case-insensitive substring match wins, checked in the order
// top, bottom, shoes.
package category

import (
	"strings"

	"github.com/jalshrestha/Outfit/internal/models"
)

// Inferrer maps a title to a category.
type Inferrer interface {
	Infer(title string) models.Category
}

// KeywordInferrer matches lower-cased keywords against the title.
type KeywordInferrer struct {
	Top     []string
	Bottom  []string
	Shoes   []string
	Default models.Category
}

func (k *KeywordInferrer) Infer(title string) models.Category {
	lower := strings.ToLower(title)

	rules := []struct {
		keywords []string
		category models.Category
	}{
		{k.Top, models.CategoryTop},
		{k.Bottom, models.CategoryBottom},
		{k.Shoes, models.CategoryShoes},
	}

	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.category
			}
		}
	}

	if k.Default == "" {
		return models.CategoryOutfit
	}
	return k.Default
}

// Hollister returns the keyword sets tuned for Hollister product names.
func Hollister() *KeywordInferrer {
	return &KeywordInferrer{
		Top:     []string{"shirt", "tee", "hoodie", "jacket"},
		Bottom:  []string{"jean", "pant", "short"},
		Shoes:   []string{"shoe", "sneaker", "boot"},
		Default: models.CategoryOutfit,
	}
}

// HM returns the keyword sets tuned for H&M product names.
func HM() *KeywordInferrer {
	return &KeywordInferrer{
		Top:     []string{"shirt", "tee", "hoodie", "jacket", "sweater"},
		Bottom:  []string{"jean", "pant", "short", "trouser"},
		Shoes:   []string{"shoe", "sneaker", "boot", "loafer"},
		Default: models.CategoryOutfit,
	}
}

// Fixed always answers the same category. Pinterest pins are whole looks.
type Fixed models.Category

func (f Fixed) Infer(string) models.Category {
	return models.Category(f)
}
