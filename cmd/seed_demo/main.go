package main

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/zevar-co/zevargo/internal/config"
	"github.com/zevar-co/zevargo/internal/database"
	"github.com/zevar-co/zevargo/internal/models"
	"github.com/zevar-co/zevargo/internal/rates"
	"github.com/zevar-co/zevargo/internal/utils"
	"gorm.io/gorm/clause"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Fatalf("❌ Bad decimal literal %q: %v", v, err)
	}
	return d
}

func main() {
	fmt.Println("🌱 Zevar & Co. Demo Data Seeder")

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Product{},
		&models.MetalRate{},
		&models.Order{},
		&models.OrderItem{},
		&models.NegotiationAudit{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var productCount int64
	db.Model(&models.Product{}).Count(&productCount)
	if productCount > 0 {
		fmt.Printf("⚠️  Database already has %d products. Clear it first? (y/N): ", productCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE order_items CASCADE")
		db.Exec("TRUNCATE TABLE orders CASCADE")
		db.Exec("TRUNCATE TABLE negotiation_audits CASCADE")
		db.Exec("TRUNCATE TABLE products CASCADE")
		db.Exec("TRUNCATE TABLE metal_rates CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println()
	fmt.Println("📈 Seeding metal rates from static approximations...")
	snapshot := rates.DeriveRates(rates.StaticQuote(), cfg.Rates.RetailPremiumPct)
	for grade, rate := range snapshot {
		row := models.MetalRate{
			Grade:       grade,
			RatePerGram: rate,
			Source:      "static",
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "grade"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate_per_gram", "source", "updated_at"}),
		}).Create(&row).Error; err != nil {
			log.Fatalf("❌ Failed to seed rate for %s: %v", grade, err)
		}
		fmt.Printf("   %s → ₹%s/g\n", grade, rate.Round(2))
	}

	fmt.Println()
	fmt.Println("💍 Creating demo catalog...")
	products := []models.Product{
		{
			SKU:              "ZV-CHAIN-001",
			Name:             "22K Gold Rope Chain",
			Description:      "Classic handwoven rope chain, 20 inch.",
			Grade:            models.Grade22K,
			GrossWeight:      dec("10.300"),
			NetWeight:        dec("10.300"),
			PurchaseTouchPct: dec("92"),
			PurchaseMCMode:   models.PurchaseMCFixed,
			PurchaseMCAmount: dec("500"),
			WastagePct:       dec("12"),
			RetailMCMode:     models.RetailMCFlat,
			RetailMCAmount:   dec("1500"),
			Active:           true,
		},
		{
			SKU:              "ZV-BANGLE-002",
			Name:             "22K Gold Kada Bangle",
			Description:      "Solid traditional kada, machine finish.",
			Grade:            models.Grade22K,
			GrossWeight:      dec("18.450"),
			NetWeight:        dec("18.450"),
			PurchaseMCMode:   models.PurchaseMCBundled,
			WastagePct:       dec("10"),
			RetailMCMode:     models.RetailMCPerGram,
			RetailMCAmount:   dec("180"),
			Active:           true,
		},
		{
			SKU:              "ZV-RING-003",
			Name:             "18K Diamond Solitaire Ring",
			Description:      "0.25ct solitaire on an 18K band.",
			Grade:            models.Grade18K,
			GrossWeight:      dec("4.120"),
			NetWeight:        dec("3.900"),
			StoneWeight:      dec("0.220"),
			PurchaseTouchPct: dec("75"),
			PurchaseMCMode:   models.PurchaseMCPerGram,
			PurchaseMCAmount: dec("350"),
			WastagePct:       dec("8"),
			RetailMCMode:     models.RetailMCPercent,
			RetailMCAmount:   dec("14"),
			Active:           true,
		},
		{
			SKU:            "ZV-COIN-004",
			Name:           "24K Gold Coin 8g",
			Description:    "999 purity minted coin.",
			Grade:          models.Grade24K,
			GrossWeight:    dec("8.000"),
			NetWeight:      dec("8.000"),
			PurchaseMCMode: models.PurchaseMCBundled,
			WastagePct:     dec("0"),
			RetailMCMode:   models.RetailMCFlat,
			RetailMCAmount: dec("400"),
			Active:         true,
		},
		{
			SKU:              "ZV-ANKLET-005",
			Name:             "Silver Payal Pair",
			Description:      "Oxidised silver anklets with ghungroo.",
			Grade:            models.GradeSilver,
			GrossWeight:      dec("42.000"),
			NetWeight:        dec("42.000"),
			PurchaseTouchPct: dec("80"),
			PurchaseMCMode:   models.PurchaseMCPerGram,
			PurchaseMCAmount: dec("12"),
			WastagePct:       dec("5"),
			RetailMCMode:     models.RetailMCPerGram,
			RetailMCAmount:   dec("35"),
			Active:           true,
		},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatalf("❌ Failed to create product %s: %v", products[i].SKU, err)
		}
		fmt.Printf("   %s (%s)\n", products[i].Name, products[i].SKU)
	}

	fmt.Println()
	fmt.Println("👤 Creating demo accounts...")
	adminPass, err := utils.HashPassword("admin12345")
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	customerPass, err := utils.HashPassword("customer12345")
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}
	users := []models.UserAuth{
		{ID: "demo-admin", Email: "admin@zevar.example.com", Password: adminPass, Name: "Store Admin", Role: "admin"},
		{ID: "demo-customer", Email: "customer@zevar.example.com", Password: customerPass, Name: "Demo Customer", Role: "customer"},
	}
	for i := range users {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users[i]).Error; err != nil {
			log.Fatalf("❌ Failed to create user %s: %v", users[i].Email, err)
		}
		fmt.Printf("   %s (%s)\n", users[i].Email, users[i].Role)
	}

	fmt.Println()
	fmt.Println("✅ Demo data ready")
}
