package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/zevar-co/zevargo/internal/invoice"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/pricing"
	"github.com/zevar-co/zevargo/internal/rates"
)

func pathID(req *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	return uint(id), err
}

// listProducts returns active catalog items
func (r *Router) listProducts(w http.ResponseWriter, req *http.Request) {
	var products []models.Product
	q := r.db.Where("active = ?", true)
	if grade := req.URL.Query().Get("grade"); grade != "" {
		q = q.Where("grade = ?", grade)
	}
	if err := q.Order("id").Find(&products).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// getProduct returns one catalog item
func (r *Router) getProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// getProductPrice returns the display breakdown at current rates.
// Wholesale cost and floor price are stripped: they never leave the server.
func (r *Router) getProductPrice(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	snapshot, err := rates.LoadSnapshot(r.db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load rates")
		return
	}

	b := pricing.ComputeBreakdown(&product, snapshot)
	if b.Degraded {
		respondError(w, http.StatusServiceUnavailable, "Pricing temporarily unavailable for this item")
		return
	}

	display := b.Display()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"product_id":         product.ID,
		"retail_metal_value": display.RetailMetalValue,
		"wastage_value":      display.WastageValue,
		"making_charge":      display.MakingCharge,
		"gst_amount":         display.GSTAmount,
		"listed_price":       display.ListedPrice,
		"display_price":      pricing.DiscountedListed(&product, display.ListedPrice, time.Now()).Round(2),
	})
}

// getProductQR serves a QR PNG linking to the product page
func (r *Router) getProductQR(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	png, err := invoice.ProductQR(product.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate QR")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// createProduct adds a catalog item (admin)
func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	var product models.Product
	if err := json.NewDecoder(req.Body).Decode(&product); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if product.Name == "" || product.Grade == "" {
		respondError(w, http.StatusBadRequest, "name and grade are required")
		return
	}

	product.ID = 0
	if err := r.db.Create(&product).Error; err != nil {
		respondError(w, http.StatusBadRequest, "Failed to create product (SKU might exist)")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// updateProduct modifies a catalog item (admin)
func (r *Router) updateProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var existing models.Product
	if err := r.db.First(&existing, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}

	var updates models.Product
	if err := json.NewDecoder(req.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates.ID = existing.ID
	if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

// deleteProduct deactivates a catalog item (admin). Soft removal keeps
// order history intact.
func (r *Router) deleteProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	result := r.db.Model(&models.Product{}).Where("id = ?", id).Update("active", false)
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if result.RowsAffected == 0 {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
