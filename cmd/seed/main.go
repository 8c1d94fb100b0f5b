package main

import (
	"errors"
	"fmt"

	"cloth_pos_backend/internal/database"
	"cloth_pos_backend/internal/repositories"
	"cloth_pos_backend/internal/services"
	"cloth_pos_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type seedProduct struct {
	category    string
	name        string
	description string
	priceRetail float64
	sizes       []string
	colors      []string
}

// Apparel priced at or under 1000 attracts 5% GST, above that 12%.
func gstRateFor(priceRetail float64) float64 {
	if priceRetail <= 1000 {
		return 5
	}
	return 12
}

var seedProducts = []seedProduct{
	{"Blouses", "Readymade Blouse", "Ready to wear blouses in various designs", 450, []string{"S", "M", "L"}, []string{"Red", "Black"}},
	{"Sarees", "Fancy Designer Saree", "Fancy designer sarees for special occasions", 1800, []string{"FREE"}, []string{"Red", "Green", "Blue"}},
	{"Sarees", "Pure Silk Saree", "Premium pure silk sarees", 4500, []string{"FREE"}, []string{"Maroon", "Gold"}},
	{"Kurtis", "Designer Kurti Set", "Designer kurti sets with bottom and dupatta", 1250, []string{"M", "L", "XL"}, []string{"Pink", "Teal"}},
	{"Kurtis", "Single Short Kurti", "Short length single piece kurtis", 550, []string{"S", "M", "L"}, []string{"Yellow", "White"}},
	{"Kurtis", "Single Long Kurti", "Long length single piece kurtis", 750, []string{"M", "L", "XL"}, []string{"Blue", "Black"}},
	{"Kurtis", "Daily Wear Kurti Set", "Comfortable daily wear kurti sets", 850, []string{"M", "L"}, []string{"Grey", "Green"}},
	{"Coord Sets", "Coord Set", "Matching top and bottom sets", 1100, []string{"S", "M", "L"}, []string{"Beige", "Navy"}},
	{"One Piece", "Single Long One Piece", "Long one piece dresses", 1350, []string{"S", "M", "L"}, []string{"Black", "Wine"}},
	{"One Piece", "Single Short One Piece", "Short one piece dresses", 950, []string{"S", "M"}, []string{"Red", "White"}},
	{"Bottom Wear", "Leggings", "Comfortable stretchable leggings", 300, []string{"M", "L", "XL"}, []string{"Black", "White", "Skin"}},
	{"Bottom Wear", "Chudidar", "Traditional chudidar pants", 350, []string{"M", "L"}, []string{"Black", "White"}},
	{"Bottom Wear", "Ankle Length Pants", "Ankle length pants/churidar", 400, []string{"M", "L", "XL"}, []string{"Black", "Navy"}},
	{"Bottom Wear", "Pants", "Regular and palazzo pants", 600, []string{"M", "L", "XL"}, []string{"Black", "Beige"}},
}

func main() {
	_ = godotenv.Load()
	utils.InitLogger()

	db, err := database.Connect(
		utils.Getenv("DB_HOST", "localhost"),
		utils.Getenv("DB_PORT", "5432"),
		utils.Getenv("DB_USER", "cloth_pos_user"),
		utils.Getenv("DB_PASSWORD", "cloth_pos_password"),
		utils.Getenv("DB_NAME", "cloth_pos_db"),
		utils.Getenv("DB_SSLMODE", "disable"),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	txRunner := repositories.NewTxRunner(db)
	authService := services.NewAuthService(repositories.NewAuthRepository(db), txRunner)
	catalogService := services.NewCatalogService(repositories.NewCatalogRepository(db), txRunner)
	variantService := services.NewVariantService(repositories.NewVariantRepository(db), txRunner)

	seedCashier(authService)
	seedCatalog(catalogService, variantService)

	log.Info().Msg("Seeding complete")
}

func seedCashier(authService services.AuthService) {
	email := "cashier@example.com"
	fullName := "Demo Cashier"
	_, err := authService.Register(services.RegisterRequest{
		Username: utils.Getenv("SEED_CASHIER_USERNAME", "cashier"),
		Password: utils.Getenv("SEED_CASHIER_PASSWORD", "cashier123"),
		Email:    &email,
		FullName: &fullName,
	})
	switch {
	case err == nil:
		log.Info().Msg("Created demo cashier")
	case errors.Is(err, services.ErrUsernameExists):
		log.Info().Msg("Demo cashier already exists, skipping")
	default:
		log.Fatal().Err(err).Msg("Failed to create demo cashier")
	}
}

func seedCatalog(catalogService services.CatalogService, variantService services.VariantService) {
	categoryIDs := map[string]int64{}
	barcodeSeq := 100001

	for _, sp := range seedProducts {
		categoryID, ok := categoryIDs[sp.category]
		if !ok {
			category, err := catalogService.CreateCategory(services.CreateCategoryRequest{Name: sp.category})
			if err != nil {
				if errors.Is(err, services.ErrDuplicateCategory) {
					log.Info().Str("category", sp.category).Msg("Category already exists, skipping seed")
					continue
				}
				log.Fatal().Err(err).Str("category", sp.category).Msg("Failed to create category")
			}
			categoryID = category.ID
			categoryIDs[sp.category] = categoryID
			log.Info().Str("category", sp.category).Msg("Created category")
		}

		product, err := catalogService.CreateProduct(services.CreateProductRequest{
			CategoryID:  categoryID,
			Name:        sp.name,
			Description: utils.NewNullString(sp.description),
		})
		if err != nil {
			if errors.Is(err, services.ErrDuplicateProduct) {
				log.Info().Str("product", sp.name).Msg("Product already exists, skipping seed")
				continue
			}
			log.Fatal().Err(err).Str("product", sp.name).Msg("Failed to create product")
		}

		for _, size := range sp.sizes {
			for _, color := range sp.colors {
				_, err := variantService.CreateVariant(services.CreateVariantRequest{
					ProductID:     product.ID,
					Size:          size,
					Color:         color,
					Barcode:       fmt.Sprintf("CLT%06d", barcodeSeq),
					PriceCost:     sp.priceRetail * 0.6,
					PriceRetail:   sp.priceRetail,
					GSTRate:       gstRateFor(sp.priceRetail),
					StockQuantity: 20,
				})
				if err != nil {
					log.Fatal().Err(err).Str("product", sp.name).Str("size", size).Str("color", color).Msg("Failed to create variant")
				}
				barcodeSeq++
			}
		}
		log.Info().Str("product", sp.name).Int("variants", len(sp.sizes)*len(sp.colors)).Msg("Created product")
	}
}
