package http

import "softcrate-backend/internal/domain"

type PayPalCheckoutRequest struct {
	Email string             `json:"email" binding:"required,email"`
	Items []domain.OrderItem `json:"items" binding:"required,min=1"`
}

type PayPalCaptureRequest struct {
	OrderID string `json:"orderID" binding:"required"`
	Email   string `json:"email"`
}

type VoucherCheckoutRequest struct {
	Email       string             `json:"email" binding:"required,email"`
	Code        string             `json:"code" binding:"required"`
	VoucherType string             `json:"voucherType"`
	Items       []domain.OrderItem `json:"items" binding:"required,min=1"`
}

type SellhubCheckoutRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Quantity int    `json:"quantity"`
}

// Admin requests carry the password in the body, matching the storefront's
// single shared-secret scheme.

type AdminRequest struct {
	Password string `json:"password" binding:"required"`
}

type AddKeysRequest struct {
	AdminRequest
	Product string   `json:"product" binding:"required"`
	Keys    []string `json:"keys" binding:"required,min=1"`
}

type CreateProductRequest struct {
	AdminRequest
	Name            string `json:"name" binding:"required"`
	Slug            string `json:"slug" binding:"required"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	ImageURL        string `json:"imageUrl"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	ContentSections string `json:"contentSections"`
}

type DeleteProductRequest struct {
	AdminRequest
	Slug string `json:"slug" binding:"required"`
}

type DeleteKeyRequest struct {
	AdminRequest
	Product string `json:"product" binding:"required"`
	Key     string `json:"key" binding:"required"`
}

type ManualFulfillRequest struct {
	AdminRequest
	OrderID string `json:"orderId" binding:"required"`
	Product string `json:"product" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	AdminRequest
	OrderID   string `json:"orderId" binding:"required"`
	NewStatus string `json:"newStatus" binding:"required"`
}

type SetDownloadLinkRequest struct {
	AdminRequest
	Product string `json:"product" binding:"required"`
	URL     string `json:"url" binding:"required"`
}
