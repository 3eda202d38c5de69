package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type SettingsController struct {
	Service *services.SettingsService
}

func NewSettingsController(service *services.SettingsService) *SettingsController {
	RegisterValidators()
	return &SettingsController{Service: service}
}

func (sc *SettingsController) GetSettings(c *gin.Context) {
	capacity, err := sc.Service.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Configurações de reservas", capacity)
}

func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req struct {
		MaxBreakfast uint `json:"max_breakfast" binding:"required,min=1,max=100"`
		MaxLunch     uint `json:"max_lunch" binding:"required,min=1,max=100"`
		MaxDinner    uint `json:"max_dinner" binding:"required,min=1,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	settings, err := sc.Service.Update(c.Request.Context(), models.Capacity{
		MaxBreakfast: req.MaxBreakfast,
		MaxLunch:     req.MaxLunch,
		MaxDinner:    req.MaxDinner,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Reservation settings updated by %s", c.GetString("subject"))
	utils.RespondJSON(c, http.StatusOK, "Configurações atualizadas com sucesso!", settings)
}
