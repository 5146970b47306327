package catalog

import (
	"errors"
	"fmt"
	"strings"
)

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Price    float64   `json:"price"`
	Category *Category `json:"category,omitempty"`
}

type ProductInput struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	CategoryName string  `json:"categoryName"`
}

type Order string

const (
	OrderIDAsc     Order = "ID_ASC"
	OrderNameAsc   Order = "NAME_ASC"
	OrderNameDesc  Order = "NAME_DESC"
	OrderPriceAsc  Order = "PRICE_ASC"
	OrderPriceDesc Order = "PRICE_DESC"
)

var Orders = []Order{OrderIDAsc, OrderNameAsc, OrderNameDesc, OrderPriceAsc, OrderPriceDesc}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// ListOptions filters products by a case-insensitive name substring and
// pages through them by offset.
type ListOptions struct {
	Term  string
	Skip  int
	Take  int
	Order Order
}

func (o ListOptions) normalized() ListOptions {
	o.Term = strings.TrimSpace(o.Term)
	if o.Skip < 0 {
		o.Skip = 0
	}
	if o.Take <= 0 {
		o.Take = DefaultPageSize
	}
	if o.Take > MaxPageSize {
		o.Take = MaxPageSize
	}
	switch o.Order {
	case OrderNameAsc, OrderNameDesc, OrderPriceAsc, OrderPriceDesc:
	default:
		o.Order = OrderIDAsc
	}
	return o
}

type Page struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}

var ErrProductNotFound = errors.New("product not found")

// ValidationError carries a user-facing message about a rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
