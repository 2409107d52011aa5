package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/invoice"
	"github.com/zevar-co/zevargo/internal/middleware"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/pricing"
	"github.com/zevar-co/zevargo/internal/rates"
	"gorm.io/gorm"
)

// OrderItemRequest is one line of a checkout request. AgreedPrice is the
// accepted negotiation price; when absent the listed price applies.
type OrderItemRequest struct {
	ProductID   uint             `json:"product_id"`
	Quantity    int              `json:"quantity"`
	AgreedPrice *decimal.Decimal `json:"agreed_price,omitempty"`
}

// CreateOrderRequest is a checkout payload
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

func requestUserID(req *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFrom(req.Context())
	if !ok {
		return "", false
	}
	id, ok := claims["id"].(string)
	return id, ok
}

// createOrder captures a checkout at accepted or listed prices
func (r *Router) createOrder(w http.ResponseWriter, req *http.Request) {
	userID, ok := requestUserID(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid session")
		return
	}

	var body CreateOrderRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body.Items) == 0 {
		respondError(w, http.StatusBadRequest, "order needs at least one item")
		return
	}

	snapshot, err := rates.LoadSnapshot(r.db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load rates")
		return
	}

	order := models.Order{
		Reference: newOrderReference(),
		UserID:    userID,
		Status:    models.OrderPending,
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range body.Items {
			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				return fmt.Errorf("product %d not found", line.ProductID)
			}

			qty := line.Quantity
			if qty <= 0 {
				qty = 1
			}

			b := pricing.ComputeBreakdown(&product, snapshot)
			if b.Degraded {
				return fmt.Errorf("product %d cannot be priced right now", product.ID)
			}

			unit := b.ListedPrice.Round(2)
			negotiated := false
			if line.AgreedPrice != nil {
				// An agreed price may only improve on listed, never break
				// the floor; anything else falls back to listed.
				agreed := line.AgreedPrice.Round(2)
				if agreed.GreaterThanOrEqual(b.FloorPrice) && agreed.LessThan(unit) {
					unit = agreed
					negotiated = true
				}
			}

			item := models.OrderItem{
				OrderID:    order.ID,
				ProductID:  product.ID,
				Quantity:   qty,
				UnitPrice:  unit,
				Negotiated: negotiated,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			total = total.Add(unit.Mul(decimal.NewFromInt(int64(qty))))
		}

		return tx.Model(&order).Update("total", total).Error
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "Checkout failed: "+err.Error())
		return
	}

	r.db.Preload("Items").First(&order, order.ID)
	respondJSON(w, http.StatusCreated, order)
}

// getOrder returns one of the caller's orders
func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOwnOrder(w, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// getOrderInvoice streams the invoice PDF
func (r *Router) getOrderInvoice(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOwnOrder(w, req)
	if !ok {
		return
	}

	var user models.UserAuth
	if err := r.db.First(&user, "id = ?", order.UserID).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load customer")
		return
	}

	pdf, err := invoice.Generate(order, &user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render invoice")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", order.Reference))
	w.Write(pdf)
}

// loadOwnOrder fetches the order if it belongs to the caller
func (r *Router) loadOwnOrder(w http.ResponseWriter, req *http.Request) (*models.Order, bool) {
	userID, ok := requestUserID(req)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid session")
		return nil, false
	}

	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return nil, false
	}

	var order models.Order
	if err := r.db.Preload("Items").Preload("Items.Product").First(&order, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return nil, false
	}
	if order.UserID != userID {
		respondError(w, http.StatusForbidden, "Not your order")
		return nil, false
	}
	return &order, true
}

func newOrderReference() string {
	return "ZV-" + time.Now().Format("20060102") + "-" + strings.ToUpper(uuid.New().String()[:8])
}
