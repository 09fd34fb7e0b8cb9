package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"softcrate-backend/internal/config"
	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/sellhub"
	"softcrate-backend/internal/services"
)

type Handler struct {
	checkout    *services.CheckoutService
	fulfillment *services.FulfillmentService
	catalog     *services.CatalogService
	sellhub     sellhub.ClientInterface
	cfg         *config.Config
	logger      zerolog.Logger
}

func NewHandler(
	checkout *services.CheckoutService,
	fulfillment *services.FulfillmentService,
	catalog *services.CatalogService,
	sh sellhub.ClientInterface,
	cfg *config.Config,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		checkout:    checkout,
		fulfillment: fulfillment,
		catalog:     catalog,
		sellhub:     sh,
		cfg:         cfg,
		logger:      logger.With().Str("component", "HTTPHandler").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", h.Health)
	api.GET("/debug-env", h.DebugEnv)
	api.GET("/products", h.Products)

	api.POST("/paypal-checkout", h.PayPalCheckout)
	api.POST("/paypal-capture", h.PayPalCapture)
	api.POST("/paypal-ipn", h.PayPalIPN)

	api.POST("/amazon-checkout", h.AmazonCheckout)
	api.POST("/giftcard-checkout", h.GiftcardCheckout)

	api.POST("/sellhub/checkout", h.SellhubCheckout)
	api.GET("/sellhub/variants", h.SellhubVariants)

	admin := api.Group("/admin")
	admin.POST("/add-keys", h.AddKeys)
	admin.POST("/view-keys", h.ViewKeys)
	admin.POST("/view-orders", h.ViewOrders)
	admin.POST("/create-product", h.CreateProduct)
	admin.POST("/delete-product", h.DeleteProduct)
	admin.POST("/delete-key", h.DeleteKey)
	admin.POST("/manual-fulfill", h.ManualFulfill)
	admin.POST("/update-order-status", h.UpdateOrderStatus)
	admin.POST("/set-download-link", h.SetDownloadLink)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DebugEnv reports which integrations are configured without leaking the
// secrets themselves.
func (h *Handler) DebugEnv(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"paypal_configured":  h.cfg.PayPal.ClientID != "" && h.cfg.PayPal.Secret != "",
		"paypal_mode":        h.cfg.PayPal.Mode,
		"resend_configured":  h.cfg.ResendAPIKey != "",
		"sellhub_configured": h.cfg.Sellhub.APIKey != "",
		"amqp_configured":    h.cfg.AMQPURL != "",
		"admin_configured":   h.cfg.AdminPassword != "",
		"maintenance_mode":   h.cfg.MaintenanceMode,
	})
}

func (h *Handler) Products(c *gin.Context) {
	products, err := h.catalog.PublicProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) PayPalCheckout(c *gin.Context) {
	var req PayPalCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.checkout.CreatePayPalOrder(c.Request.Context(), req.Email, req.Items)
	if err != nil {
		h.logger.Error().Err(err).Msg("paypal checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create paypal order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": order.ID, "approveUrl": order.ApprovalURL})
}

func (h *Handler) PayPalCapture(c *gin.Context) {
	var req PayPalCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.checkout.CapturePayPalOrder(c.Request.Context(), req.OrderID, req.Email)
	if err != nil {
		h.logger.Error().Str("paypal_order_id", req.OrderID).Err(err).Msg("paypal capture failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not capture paypal order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  outcome.Status,
		"orderId": outcome.OrderID,
		"message": outcome.Message,
	})
}

// PayPalIPN always answers the notification; processing errors are logged
// and mapped so PayPal retries only when a retry could help.
func (h *Handler) PayPalIPN(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "bad form")
		return
	}

	err := h.checkout.ProcessIPN(c.Request.Context(), c.Request.PostForm)
	switch {
	case err == nil:
		c.String(http.StatusOK, "OK")
	case errors.Is(err, services.ErrIPNNotVerified),
		errors.Is(err, services.ErrIPNNoCustomID),
		errors.Is(err, services.ErrAmountMismatch):
		h.logger.Warn().Err(err).Msg("ipn rejected")
		c.String(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("ipn processing failed")
		c.String(http.StatusInternalServerError, "processing failed")
	}
}

func (h *Handler) AmazonCheckout(c *gin.Context) {
	h.voucherCheckout(c, "amazon")
}

func (h *Handler) GiftcardCheckout(c *gin.Context) {
	h.voucherCheckout(c, "")
}

func (h *Handler) voucherCheckout(c *gin.Context, forcedType string) {
	var req VoucherCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voucherType := forcedType
	if voucherType == "" {
		voucherType = req.VoucherType
	}
	if voucherType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voucherType required"})
		return
	}

	order, err := h.checkout.VoucherCheckout(c.Request.Context(), req.Email, req.Code, voucherType, req.Items)
	if err != nil {
		h.logger.Error().Str("voucher_type", voucherType).Err(err).Msg("voucher checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record voucher order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"status":      order.Status,
	})
}

func (h *Handler) SellhubCheckout(c *gin.Context) {
	var req SellhubCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	checkout, err := h.sellhub.CreateCheckout(c.Request.Context(), sellhub.CheckoutParams{
		Email:    req.Email,
		Quantity: req.Quantity,
	})
	if err != nil {
		var missing *sellhub.MissingConfigError
		if errors.As(err, &missing) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": missing.Error()})
			return
		}
		h.logger.Error().Err(err).Msg("sellhub checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create sellhub checkout"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": checkout.URL})
}

func (h *Handler) SellhubVariants(c *gin.Context) {
	raw, err := h.sellhub.Variants(c.Request.Context(), c.Request.URL.RawQuery)
	if err != nil {
		var missing *sellhub.MissingConfigError
		if errors.As(err, &missing) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": missing.Error()})
			return
		}
		h.logger.Error().Err(err).Msg("sellhub variants failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load sellhub variants"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// authorize checks the shared admin password. An unset password means the
// whole admin surface is disabled.
func (h *Handler) authorize(c *gin.Context, password string) bool {
	if h.cfg.AdminPassword == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin password not configured"})
		return false
	}
	if password != h.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func (h *Handler) AddKeys(c *gin.Context) {
	var req AddKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	fulfilled, restocked, err := h.fulfillment.FulfillBackorders(c.Request.Context(), req.Product, req.Keys)
	if err != nil {
		h.logger.Error().Str("product_slug", req.Product).Err(err).Msg("add keys failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fulfilled": fulfilled,
		"restocked": restocked,
	})
}

func (h *Handler) ViewKeys(c *gin.Context) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	overview, err := h.catalog.InventoryOverview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load inventory"})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) ViewOrders(c *gin.Context) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	orders, err := h.catalog.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	product := domain.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Price:       req.Price,
		Currency:    req.Currency,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.ContentSections != "" {
		product.ContentSections = json.RawMessage(req.ContentSections)
	}

	created, err := h.catalog.CreateProduct(c.Request.Context(), product)
	if err != nil {
		if errors.Is(err, services.ErrProductExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	var req DeleteProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), req.Slug); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": req.Slug})
}

func (h *Handler) DeleteKey(c *gin.Context) {
	var req DeleteKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	if err := h.catalog.DeleteKey(c.Request.Context(), req.Product, req.Key); err != nil {
		if errors.Is(err, services.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ManualFulfill(c *gin.Context) {
	var req ManualFulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	order, err := h.fulfillment.ManualFulfill(c.Request.Context(), req.OrderID, req.Product)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fulfill order"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":    order.ID,
		"status":     order.Status,
		"licenseKey": order.LicenseKey,
	})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	order, emailSent, err := h.fulfillment.UpdateOrderStatus(c.Request.Context(), req.OrderID, domain.OrderStatus(req.NewStatus))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orderId":   order.ID,
		"status":    order.Status,
		"emailSent": emailSent,
	})
}

func (h *Handler) SetDownloadLink(c *gin.Context) {
	var req SetDownloadLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.authorize(c, req.Password) {
		return
	}

	if err := h.catalog.SetDownloadLink(c.Request.Context(), req.Product, req.URL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save download link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": req.Product, "url": req.URL})
}
