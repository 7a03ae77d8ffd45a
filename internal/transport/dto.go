package transport

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of a request DTO.
func Validate(v any) error {
	return validate.Struct(v)
}

type OrderItemRequest struct {
	Product  string `json:"product"  validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

type PlaceOrderRequest struct {
	OrderItems       []OrderItemRequest `json:"orderItems"       validate:"dive"`
	ShippingAddress1 string             `json:"shippingAddress1" validate:"required"`
	ShippingAddress2 string             `json:"shippingAddress2"`
	City             string             `json:"city"             validate:"required"`
	Zip              string             `json:"zip"              validate:"required"`
	Country          string             `json:"country"          validate:"required"`
	Phone            string             `json:"phone"            validate:"required"`
	Status           string             `json:"status"`
	User             string             `json:"user"             validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RegisterRequest struct {
	Name      string `json:"name"      validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  string `json:"user"`
	Token string `json:"token"`
}

// UpdateUserRequest leaves the stored password untouched when Password is empty.
type UpdateUserRequest struct {
	Name      string `json:"name"      validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"omitempty,min=6"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

type CategoryRequest struct {
	Name  string `json:"name"  validate:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type ProductRequest struct {
	Name            string          `json:"name"            validate:"required"`
	Description     string          `json:"description"     validate:"required"`
	RichDescription string          `json:"richDescription"`
	Image           string          `json:"image"`
	Brand           string          `json:"brand"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"        validate:"required"`
	CountInStock    int             `json:"countInStock"    validate:"gte=0,lte=255"`
	Rating          float64         `json:"rating"          validate:"gte=0"`
	NumReviews      int             `json:"numReviews"      validate:"gte=0"`
	IsFeatured      bool            `json:"isFeatured"`
}

type GalleryImagesRequest struct {
	Images []string `json:"images" validate:"required,min=1,dive,url"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
