package catalog

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	maxNameLength     = 150
	maxCategoryLength = 100
)

// Normalize trims the input and checks it. The first failing rule wins.
func Normalize(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.CategoryName = strings.TrimSpace(input.CategoryName)

	if input.Name == "" {
		return ProductInput{}, ValidationError{Field: "name", Message: "name must not be empty"}
	}
	if !utf8.ValidString(input.Name) || utf8.RuneCountInString(input.Name) > maxNameLength {
		return ProductInput{}, ValidationError{Field: "name", Message: "name is invalid"}
	}
	if utf8.RuneCountInString(input.Name) < minNameLength {
		return ProductInput{}, ValidationError{Field: "name", Message: "name must be at least 3 characters"}
	}
	if math.IsNaN(input.Price) || math.IsInf(input.Price, 0) || input.Price <= 0 {
		return ProductInput{}, ValidationError{Field: "price", Message: "price must be greater than zero"}
	}
	if input.CategoryName == "" {
		return ProductInput{}, ValidationError{Field: "categoryName", Message: "category name is required"}
	}
	if !utf8.ValidString(input.CategoryName) || utf8.RuneCountInString(input.CategoryName) > maxCategoryLength {
		return ProductInput{}, ValidationError{Field: "categoryName", Message: "category name is invalid"}
	}

	return input, nil
}
