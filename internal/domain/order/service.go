// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/config"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
	"github.com/thesheunit/storefront/internal/pkg/email"
	"gorm.io/gorm"
)

// StandardShipping is the flat shipping rate in cents
const StandardShipping int64 = 999

var (
	// ErrEmptyCart is returned when placing an order without items
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound is returned for unknown orders or orders of another user
	ErrOrderNotFound = fmt.Errorf("order %w", storeerr.ErrNotFound)
)

// UnavailableError reports cart lines that cannot be ordered
type UnavailableError struct {
	Reasons []string
}

func (e *UnavailableError) Error() string {
	return "some items cannot be ordered: " + strings.Join(e.Reasons, "; ")
}

// Buyer identifies who places an order
type Buyer struct {
	UserID uint
	Email  string
	Name   string
}

// PlaceOrderRequest represents checkout data
type PlaceOrderRequest struct {
	ShippingAddress Address `json:"shipping_address" binding:"required"`
	Notes           string  `json:"notes"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page   int         `form:"page,default=1"`
	Limit  int         `form:"limit,default=20"`
	Status OrderStatus `form:"status"`
}

// OrderResponse represents orders with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Service handles order business logic
type Service struct {
	db           *gorm.DB
	config       *config.Config
	emailService *email.EmailService
	logger       *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, emailService *email.EmailService, logger *logrus.Logger) *Service {
	return &Service{
		db:           db,
		config:       cfg,
		emailService: emailService,
		logger:       logger,
	}
}

// PlaceOrder prices items from the catalog, reserves stock and stores the
// order in one transaction. The caller clears the cart once this succeeds.
func (s *Service) PlaceOrder(ctx context.Context, buyer Buyer, items []cart.LineItem, req *PlaceOrderRequest) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order := Order{
		UserID:          buyer.UserID,
		Email:           buyer.Email,
		Status:          OrderStatusPending,
		PaymentMethod:   PaymentMethodCashOnDelivery,
		ShippingAddress: req.ShippingAddress,
		Notes:           strings.TrimSpace(req.Notes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := s.priceLines(tx, items)
		if err != nil {
			return err
		}

		for _, line := range lines {
			order.SubtotalAmount += line.TotalPrice
		}
		order.ShippingAmount = StandardShipping
		order.TotalAmount = order.SubtotalAmount + order.ShippingAmount

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber = order.GenerateOrderNumber()
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = lines

		return s.reserveStock(tx, lines)
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, &order, buyer)
	return &order, nil
}

// priceLines copies names and prices from the catalog and checks that every
// line can be ordered
func (s *Service) priceLines(tx *gorm.DB, items []cart.LineItem) ([]OrderItem, error) {
	ids := cart.Cart{Items: items}.ProductIDs()
	var products []product.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uint]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var reasons []string
	lines := make([]OrderItem, 0, len(items))
	requested := make(map[uint]int, len(ids))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		switch {
		case !ok || !p.IsActive:
			reasons = append(reasons, fmt.Sprintf("product %d is no longer available", item.ProductID))
			continue
		case !p.HasSize(item.Size):
			reasons = append(reasons, fmt.Sprintf("'%s' is not available in size %q", p.Name, item.Size))
			continue
		}

		requested[p.ID] += item.Quantity
		lines = append(lines, OrderItem{
			ProductID:  p.ID,
			SKU:        p.SKU,
			Name:       p.Name,
			Size:       item.Size,
			Quantity:   item.Quantity,
			Price:      p.Price,
			TotalPrice: p.Price * int64(item.Quantity),
		})
	}

	for id, qty := range requested {
		if p := byID[id]; p.Quantity < qty {
			reasons = append(reasons, fmt.Sprintf("insufficient stock for '%s'. Available: %d, Requested: %d", p.Name, p.Quantity, qty))
		}
	}

	if len(reasons) > 0 {
		return nil, &UnavailableError{Reasons: reasons}
	}
	return lines, nil
}

// reserveStock decrements product quantities, refusing to go below zero
func (s *Service) reserveStock(tx *gorm.DB, lines []OrderItem) error {
	for _, line := range lines {
		result := tx.Model(&product.Product{}).
			Where("id = ? AND quantity >= ?", line.ProductID, line.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &UnavailableError{Reasons: []string{fmt.Sprintf("insufficient stock for '%s'", line.Name)}}
		}
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, o *Order, buyer Buyer) {
	if s.emailService == nil || o.Email == "" {
		return
	}

	items := make([]email.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, email.OrderItem{
			Name:     item.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Total:    FormatCents(item.TotalPrice),
		})
	}

	err := s.emailService.SendOrderConfirmationEmail(ctx, email.OrderConfirmationData{
		EmailTemplateData: email.EmailTemplateData{UserName: buyer.Name, UserEmail: o.Email},
		OrderNumber:       o.OrderNumber,
		OrderDate:         o.CreatedAt.Format("January 2, 2006"),
		OrderTotal:        FormatCents(o.TotalAmount),
		OrderURL:          fmt.Sprintf("%s/orders/%d", s.config.App.BaseURL, o.ID),
		PaymentMethod:     o.PaymentMethod,
		Items:             items,
		ShippingAddress:   o.ShippingAddress.String(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to send order confirmation email")
	}
}

// ListForUser returns the orders of one user, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, req *OrderListRequest) (*OrderResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := []Order{}
	offset := (req.Page - 1) * req.Limit
	if err := query.Preload("Items").Order("created_at DESC, id DESC").
		Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetForUser returns one order of userID
func (s *Service) GetForUser(ctx context.Context, userID, id uint) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// GetOrder returns any order, for administrators
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	var order Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// NotifyStatus emails the customer about a status change. Failures are logged.
func (s *Service) NotifyStatus(ctx context.Context, o *Order) {
	if s.emailService == nil || o.Email == "" {
		return
	}
	err := s.emailService.SendOrderStatusUpdateEmail(ctx, email.OrderStatusUpdateData{
		EmailTemplateData: email.EmailTemplateData{UserEmail: o.Email},
		OrderNumber:       o.OrderNumber,
		Status:            string(o.Status),
		OrderURL:          fmt.Sprintf("%s/orders/%d", s.config.App.BaseURL, o.ID),
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to send order status email")
	}
}
