package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/live"
	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/repository"
	"github.com/otaviofreire/comanda-app/utils"
)

var ErrTabUnavailable = errors.New("comanda fechada ou nao encontrada")

type TabController struct {
	DB   *gorm.DB
	Repo *repository.TabRepo
}

func NewTabController(db *gorm.DB) *TabController {
	return &TabController{
		DB:   db,
		Repo: repository.NewTabRepo(db),
	}
}

// GetAllTabs -> every tab with its attendant history, newest first.
func (tc *TabController) GetAllTabs(c *gin.Context) {
	tabs, err := tc.Repo.ListTabs()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de comandas", tabs)
}

// CreateTab -> opens an empty tab for the logged-in attendant.
func (tc *TabController) CreateTab(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	// Body is optional; a tab without nickname gets the default.
	_ = c.ShouldBindJSON(&req)

	tab, err := tc.Repo.CreateTab(req.Nickname, c.GetString("attendant_name"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.BroadcastTabUpdate(*tab)
	utils.RespondJSON(c, http.StatusCreated, "Comanda aberta", tab)
}

// GetTabByID -> one tab with items and history.
func (tc *TabController) GetTabByID(c *gin.Context) {
	tab, err := tc.Repo.GetTab(c.Param("tab_id"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if tab == nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("comanda nao encontrada"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhe da comanda", tab)
}

// GetTabItems -> the live item list a device subscribes to while the tab's
// detail screen is open.
func (tc *TabController) GetTabItems(c *gin.Context) {
	items, err := tc.Repo.ListItems(c.Param("tab_id"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Itens da comanda", items)
}

// AddItem -> adds a product to the tab. The client sends the name/price
// snapshot it showed the attendant; on a repeat add the stored snapshot
// wins and only the quantity grows.
func (tc *TabController) AddItem(c *gin.Context) {
	tabID := c.Param("tab_id")

	var req struct {
		ProductID string  `json:"product_id" binding:"required"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Qty       float64 `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !tc.Repo.AddItem(tabID, req.ProductID, req.Name, req.Price, req.Qty) {
		utils.RespondError(c, http.StatusConflict, ErrTabUnavailable)
		return
	}

	tc.broadcastItem(tabID, req.ProductID)
	tc.broadcastTab(tabID)
	utils.RespondJSON(c, http.StatusOK, "Item adicionado", nil)
}

// UpdateItemQty -> sets a line's quantity outright.
func (tc *TabController) UpdateItemQty(c *gin.Context) {
	tabID := c.Param("tab_id")
	productID := c.Param("product_id")

	var req struct {
		Qty float64 `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !tc.Repo.UpdateItemQty(tabID, productID, req.Qty) {
		utils.RespondError(c, http.StatusConflict, ErrTabUnavailable)
		return
	}

	tc.broadcastItem(tabID, productID)
	tc.broadcastTab(tabID)
	utils.RespondJSON(c, http.StatusOK, "Quantidade atualizada", nil)
}

// RemoveItem -> deletes a line and gives the total back.
func (tc *TabController) RemoveItem(c *gin.Context) {
	tabID := c.Param("tab_id")
	productID := c.Param("product_id")

	if !tc.Repo.RemoveItem(tabID, productID) {
		utils.RespondError(c, http.StatusConflict, ErrTabUnavailable)
		return
	}

	live.BroadcastItemDelete(tabID, productID)
	tc.broadcastTab(tabID)
	utils.RespondJSON(c, http.StatusOK, "Item removido", nil)
}

// ChangeAttendant -> hands the tab to another attendant.
func (tc *TabController) ChangeAttendant(c *gin.Context) {
	tabID := c.Param("tab_id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !tc.Repo.ChangeAttendant(tabID, req.Name) {
		utils.RespondError(c, http.StatusConflict, ErrTabUnavailable)
		return
	}

	tc.broadcastTab(tabID)
	utils.RespondJSON(c, http.StatusOK, "Atendente alterado", nil)
}

// CancelTab -> deletes an open tab that has no items.
func (tc *TabController) CancelTab(c *gin.Context) {
	tabID := c.Param("tab_id")

	if !tc.Repo.CancelEmptyTab(tabID) {
		utils.RespondError(c, http.StatusConflict,
			errors.New("so e possivel cancelar comanda aberta e sem itens"))
		return
	}

	live.BroadcastTabDelete(tabID)
	utils.RespondJSON(c, http.StatusOK, "Comanda cancelada", gin.H{"tab_id": tabID})
}

// CloseTab -> settles the tab against a pix/card/cash split. A split that
// does not add up comes back as 422 with the expected and informed amounts;
// a tab already closed or with zero total comes back as 409.
func (tc *TabController) CloseTab(c *gin.Context) {
	tabID := c.Param("tab_id")

	var req struct {
		Pix  float64 `json:"pix"`
		Card float64 `json:"card"`
		Cash float64 `json:"cash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	split := models.PaymentSplit{Pix: req.Pix, Card: req.Card, Cash: req.Cash}
	ok, err := tc.Repo.CloseTab(tabID, split)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
		return
	}
	if !ok {
		utils.RespondError(c, http.StatusConflict,
			errors.New("comanda fechada, vazia ou nao encontrada"))
		return
	}

	tc.broadcastTab(tabID)
	utils.RespondJSON(c, http.StatusOK, "Comanda fechada", nil)
}

func (tc *TabController) broadcastTab(tabID string) {
	tab, err := tc.Repo.GetTab(tabID)
	if err != nil || tab == nil {
		return
	}
	live.BroadcastTabUpdate(*tab)
}

func (tc *TabController) broadcastItem(tabID, productID string) {
	var item models.TabItem
	if err := tc.DB.First(&item, "tab_id = ? AND product_id = ?", tabID, productID).Error; err != nil {
		return
	}
	live.BroadcastItemUpdate(item)
}
