package web

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"shop-admin/internal/catalog"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 100
)

type loginForm struct {
	Username string
	Password string
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
}

func (f loginForm) validate() []string {
	var problems []string
	if f.Username == "" {
		problems = append(problems, "Username is required.")
	}
	if f.Password == "" {
		problems = append(problems, "Password is required.")
	}
	return problems
}

type registerForm struct {
	Username        string
	Password        string
	ConfirmPassword string
}

func parseRegisterForm(r *http.Request) registerForm {
	return registerForm{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
}

func (f registerForm) validate() []string {
	var problems []string
	if f.Username == "" {
		problems = append(problems, "Username is required.")
	}

	length := utf8.RuneCountInString(f.Password)
	switch {
	case f.Password == "":
		problems = append(problems, "Password is required.")
	case length < minPasswordLength || length > maxPasswordLength:
		problems = append(problems, "Password must be between 6 and 100 characters.")
	}

	if f.ConfirmPassword != f.Password {
		problems = append(problems, "Passwords do not match.")
	}
	return problems
}

// productForm keeps the raw price text so a rejected form re-renders what the
// user typed.
type productForm struct {
	ID           int64
	Name         string
	Price        string
	CategoryName string
}

func parseProductForm(r *http.Request) productForm {
	return productForm{
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		Price:        strings.TrimSpace(r.PostFormValue("price")),
		CategoryName: strings.TrimSpace(r.PostFormValue("categoryName")),
	}
}

func productFormFrom(p catalog.Product) productForm {
	form := productForm{
		ID:    p.ID,
		Name:  p.Name,
		Price: strconv.FormatFloat(p.Price, 'f', -1, 64),
	}
	if p.Category != nil {
		form.CategoryName = p.Category.Name
	}
	return form
}

func (f productForm) input() (catalog.ProductInput, []string) {
	var problems []string
	if f.Name == "" {
		problems = append(problems, "Name is required.")
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(f.Price, ",", "."), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0.01 {
		problems = append(problems, "Price must be greater than zero.")
	}

	if f.CategoryName == "" {
		problems = append(problems, "Category is required.")
	}

	return catalog.ProductInput{Name: f.Name, Price: price, CategoryName: f.CategoryName}, problems
}
