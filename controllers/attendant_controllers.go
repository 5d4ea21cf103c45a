package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/utils"
)

type AttendantController struct {
	DB *gorm.DB
}

func NewAttendantController(db *gorm.DB) *AttendantController {
	return &AttendantController{DB: db}
}

// GetActiveAttendants -> the login picker list. Attendants never type their
// name, they choose from this list, so it is public (names only, no hashes).
func (ac *AttendantController) GetActiveAttendants(c *gin.Context) {
	var attendants []models.Attendant
	if err := ac.DB.Where("active = ?", true).Order("name asc").Find(&attendants).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de atendentes", attendants)
}

// RegisterAttendant -> adds a staff member with a PIN.
func (ac *AttendantController) RegisterAttendant(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Pin  string `json:"pin" binding:"required,min=4"`
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

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	attendant := models.Attendant{
		ID:        uuid.NewString(),
		Name:      name,
		PinHash:   string(hashed),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ac.DB.Create(&attendant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New attendant registered: %s", attendant.Name)

	utils.RespondJSON(c, http.StatusCreated, "Atendente cadastrado", gin.H{
		"attendant_id": attendant.ID,
	})
}

// DeactivateAttendant -> soft removal; the name stays on closed tabs.
func (ac *AttendantController) DeactivateAttendant(c *gin.Context) {
	id := c.Param("attendant_id")

	res := ac.DB.Model(&models.Attendant{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("atendente nao encontrado"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Atendente desativado", gin.H{"attendant_id": id})
}
