package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"shop-admin/internal/catalog"
)

func TestRegisterFormValidate(t *testing.T) {
	cases := []struct {
		name string
		form registerForm
		want []string
	}{
		{"valid", registerForm{Username: "alice", Password: "Secret123", ConfirmPassword: "Secret123"}, nil},
		{"missing everything", registerForm{}, []string{"Username is required.", "Password is required."}},
		{"too short", registerForm{Username: "alice", Password: "12345", ConfirmPassword: "12345"}, []string{"Password must be between 6 and 100 characters."}},
		{"too long", registerForm{Username: "alice", Password: strings.Repeat("p", 101), ConfirmPassword: strings.Repeat("p", 101)}, []string{"Password must be between 6 and 100 characters."}},
		{"mismatch", registerForm{Username: "alice", Password: "Secret123", ConfirmPassword: "Secret124"}, []string{"Passwords do not match."}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.form.validate())
		})
	}
}

func TestProductFormInput(t *testing.T) {
	input, problems := productForm{Name: "Mouse", Price: "19,99", CategoryName: "Peripherals"}.input()
	assert.Empty(t, problems)
	assert.Equal(t, catalog.ProductInput{Name: "Mouse", Price: 19.99, CategoryName: "Peripherals"}, input)

	_, problems = productForm{Price: "free"}.input()
	assert.Equal(t, []string{"Name is required.", "Price must be greater than zero.", "Category is required."}, problems)

	_, problems = productForm{Name: "Mouse", Price: "0", CategoryName: "Peripherals"}.input()
	assert.Equal(t, []string{"Price must be greater than zero."}, problems)
}

func TestProductFormFrom(t *testing.T) {
	form := productFormFrom(catalog.Product{ID: 4, Name: "Mouse", Price: 19.5, Category: &catalog.Category{ID: 1, Name: "Peripherals"}})
	assert.Equal(t, productForm{ID: 4, Name: "Mouse", Price: "19.5", CategoryName: "Peripherals"}, form)
}
