// Package invoice renders order invoices as PDF, with a QR code linking
// back to the order for in-store verification.
package invoice

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/zevar-co/zevargo/internal/models"
)

const (
	pageWidth  = 210.0
	marginLeft = 15.0
)

// Generate renders the invoice PDF for an order. Items must be preloaded
// with their products.
func Generate(order *models.Order, user *models.UserAuth) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 15, 15)
	pdf.AddPage()

	storeName := os.Getenv("STORE_NAME")
	if storeName == "" {
		storeName = "Zevar & Co."
	}

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(120, 10, storeName)
	pdf.SetFont("Arial", "", 10)
	pdf.SetXY(150, 15)
	pdf.Cell(45, 5, fmt.Sprintf("Invoice: %s", order.Reference))
	pdf.SetXY(150, 20)
	pdf.Cell(45, 5, order.CreatedAt.Format("02 Jan 2006"))
	pdf.Ln(18)

	// Customer block
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(40, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(80, 5, user.Name)
	pdf.Ln(5)
	pdf.Cell(80, 5, user.Email)
	pdf.Ln(10)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(70, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Grade", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range order.Items {
		name := fmt.Sprintf("#%d", item.ProductID)
		grade := ""
		if item.Product != nil {
			name = item.Product.Name
			grade = string(item.Product.Grade)
		}
		if item.Negotiated {
			name += " (negotiated)"
		}
		amount := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		pdf.CellFormat(70, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, grade, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, "Rs "+item.UnitPrice.Round(2).String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, "Rs "+amount.Round(2).String(), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Rs "+order.Total.Round(2).String(), "1", 1, "R", false, 0, "")
	pdf.Ln(8)

	// QR code linking back to the order
	baseURL := os.Getenv("STORE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://zevar.example.com"
	}
	qrContent := fmt.Sprintf("%s/orders/%s", baseURL, order.Reference)
	qrPng, err := qrcode.Encode(qrContent, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order QR: %w", err)
	}

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("order_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("order_qr", marginLeft, pdf.GetY(), 30, 30, false, imgOptions, 0, "")

	pdf.SetXY(marginLeft+35, pdf.GetY()+12)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(120, 5, fmt.Sprintf("Scan to verify this invoice. Generated %s.", time.Now().Format("02 Jan 2006 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// ProductQR renders a QR code PNG pointing at a product's storefront page
func ProductQR(productID uint) ([]byte, error) {
	baseURL := os.Getenv("STORE_BASE_URL")
	if baseURL == "" {
		baseURL = "https://zevar.example.com"
	}
	return qrcode.Encode(fmt.Sprintf("%s/products/%d", baseURL, productID), qrcode.Medium, 256)
}
