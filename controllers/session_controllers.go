package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/otaviofreire/comanda-app/live"
	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/repository"
	"github.com/otaviofreire/comanda-app/utils"
)

type SessionController struct {
	DB       *gorm.DB
	Sessions *repository.SessionManager
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{
		DB:       db,
		Sessions: repository.NewSessionManager(db),
	}
}

// reasonStatus maps the session failure taxonomy to HTTP codes. Conflicts
// ask the user to wait or use the other device; offline asks for a retry.
func reasonStatus(reason repository.SessionReason) int {
	switch reason {
	case repository.ReasonInUse, repository.ReasonNotOwner:
		return http.StatusConflict
	case repository.ReasonMissing:
		return http.StatusNotFound
	case repository.ReasonOffline:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func reasonMessage(reason repository.SessionReason) string {
	switch reason {
	case repository.ReasonInUse:
		return "Este atendente ja esta logado em outro aparelho"
	case repository.ReasonNotOwner:
		return "A sessao pertence a outro aparelho"
	case repository.ReasonMissing:
		return "Sessao nao encontrada, faca login novamente"
	case repository.ReasonOffline:
		return "Sem conexao. Tente novamente"
	default:
		return "Nao foi possivel completar a operacao"
	}
}

// Login -> attendant picks their name on the login screen, types the PIN and
// the device claims the session. Success returns a token bound to the
// claiming device.
func (sc *SessionController) Login(c *gin.Context) {
	var req struct {
		AttendantID string `json:"attendant_id" binding:"required"`
		Pin         string `json:"pin" binding:"required"`
		DeviceID    string `json:"device_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var attendant models.Attendant
	if err := sc.DB.Where("id = ? AND active = ?", req.AttendantID, true).First(&attendant).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("atendente ou PIN invalido"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(attendant.PinHash), []byte(req.Pin)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("atendente ou PIN invalido"))
		return
	}

	result := sc.Sessions.Claim(attendant.ID, attendant.Name, req.DeviceID)
	if !result.OK {
		c.JSON(reasonStatus(result.Reason), gin.H{
			"status":  false,
			"message": reasonMessage(result.Reason),
			"reason":  result.Reason,
		})
		return
	}

	token, err := utils.GenerateToken(attendant.ID, attendant.Name, req.DeviceID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var claim models.SessionClaim
	if err := sc.DB.First(&claim, "user_id = ?", attendant.ID).Error; err == nil {
		live.BroadcastClaimUpdate(claim)
	}

	utils.InfoLogger.Printf("attendant %s logged in on device %s", attendant.Name, req.DeviceID)

	utils.RespondJSON(c, http.StatusOK, "Login realizado", gin.H{
		"token":          token,
		"attendant_id":   attendant.ID,
		"attendant_name": attendant.Name,
	})
}

// Validate -> re-confirms the session on app resume, renewing the claim.
func (sc *SessionController) Validate(c *gin.Context) {
	userID := c.GetString("user_id")
	deviceID := c.GetString("device_id")

	result := sc.Sessions.Validate(userID, deviceID)
	if !result.OK {
		c.JSON(reasonStatus(result.Reason), gin.H{
			"status":  false,
			"message": reasonMessage(result.Reason),
			"reason":  result.Reason,
		})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sessao valida", nil)
}

// Touch -> lightweight periodic renewal while the app is in the foreground.
func (sc *SessionController) Touch(c *gin.Context) {
	userID := c.GetString("user_id")
	deviceID := c.GetString("device_id")

	result := sc.Sessions.Touch(userID, deviceID)
	if !result.OK {
		c.JSON(reasonStatus(result.Reason), gin.H{
			"status":  false,
			"message": reasonMessage(result.Reason),
			"reason":  result.Reason,
		})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sessao renovada", nil)
}

// Logout -> releases the claim and revokes the token.
func (sc *SessionController) Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	deviceID := c.GetString("device_id")

	result := sc.Sessions.Release(userID, deviceID)
	if !result.OK {
		c.JSON(reasonStatus(result.Reason), gin.H{
			"status":  false,
			"message": reasonMessage(result.Reason),
			"reason":  result.Reason,
		})
		return
	}

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != "" {
		utils.BlacklistToken(token)
	}

	utils.RespondJSON(c, http.StatusOK, "Logout realizado", nil)
}
