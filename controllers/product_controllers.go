package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/utils"
)

const productListCacheKey = "products:list"

type ProductController struct {
	DB    *gorm.DB
	cache *gocache.Cache
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{
		DB:    db,
		cache: gocache.New(30*time.Second, time.Minute),
	}
}

// GetAllProducts -> full catalog, active and inactive, sorted by name. The
// list is what every device renders on the add-item screen, so it is cached
// briefly and invalidated on any catalog mutation.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	if cached, found := pc.cache.Get(productListCacheKey); found {
		utils.RespondJSON(c, http.StatusOK, "Lista de produtos", cached)
		return
	}

	var products []models.Product
	if err := pc.DB.Order("name asc").Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.cache.Set(productListCacheKey, products, gocache.DefaultExpiration)
	utils.RespondJSON(c, http.StatusOK, "Lista de produtos", products)
}

// GetProductByID -> detail of one catalog item.
func (pc *ProductController) GetProductByID(c *gin.Context) {
	id := c.Param("product_id")

	var product models.Product
	if err := pc.DB.First(&product, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("produto nao encontrado"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhe do produto", product)
}

// CreateProduct
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req struct {
		Name     string  `json:"name" binding:"required"`
		Price    float64 `json:"price" binding:"required,gt=0"`
		UnitType string  `json:"unit_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("nome nao pode ser vazio"))
		return
	}

	now := time.Now()
	product := models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     req.Price,
		UnitType:  models.NormalizeUnitType(req.UnitType),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.cache.Delete(productListCacheKey)
	utils.RespondJSON(c, http.StatusCreated, "Produto criado", product)
}

// UpdateProduct -> partial update. Changing the price never touches lines
// already on a tab; those keep the snapshot taken when they were added.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id := c.Param("product_id")

	var product models.Product
	if err := pc.DB.First(&product, "id = ?", id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("produto nao encontrado"))
		return
	}

	var req struct {
		Name     *string  `json:"name"`
		Price    *float64 `json:"price"`
		UnitType *string  `json:"unit_type"`
		Active   *bool    `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			utils.RespondError(c, http.StatusBadRequest, errors.New("nome nao pode ser vazio"))
			return
		}
		product.Name = name
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("preco deve ser maior que zero"))
			return
		}
		product.Price = *req.Price
	}
	if req.UnitType != nil {
		product.UnitType = models.NormalizeUnitType(*req.UnitType)
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.UpdatedAt = time.Now()

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	pc.cache.Delete(productListCacheKey)
	utils.RespondJSON(c, http.StatusOK, "Produto atualizado", product)
}

// DeleteProduct -> soft delete via the active flag; the row stays so item
// snapshots keep a valid product id behind them.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("product_id")

	res := pc.DB.Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("produto nao encontrado"))
		return
	}

	pc.cache.Delete(productListCacheKey)
	utils.RespondJSON(c, http.StatusOK, "Produto desativado", gin.H{"product_id": id})
}
