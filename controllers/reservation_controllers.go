package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type ReservationController struct {
	Service *services.ReservationService
}

func NewReservationController(service *services.ReservationService) *ReservationController {
	RegisterValidators()
	return &ReservationController{Service: service}
}

type reservationRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Email      string  `json:"email" binding:"required,email,max=255"`
	Phone      string  `json:"phone" binding:"required,max=50"`
	Date       string  `json:"date" binding:"required"`
	Time       string  `json:"time" binding:"required"`
	Guests     int     `json:"guests" binding:"required"`
	MealPeriod string  `json:"meal_period" binding:"required,mealperiod"`
	Notes      *string `json:"notes" binding:"omitempty,max=1000"`
	Status     string  `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed no_show"`
}

func (r reservationRequest) input() services.ReservationInput {
	return services.ReservationInput{
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Date:       r.Date,
		Time:       r.Time,
		Guests:     r.Guests,
		MealPeriod: r.MealPeriod,
		Notes:      r.Notes,
		Status:     r.Status,
	}
}

type reservationPatchRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email      *string `json:"email" binding:"omitempty,email,max=255"`
	Phone      *string `json:"phone" binding:"omitempty,min=1,max=50"`
	Date       *string `json:"date"`
	Time       *string `json:"time"`
	Guests     *int    `json:"guests"`
	MealPeriod *string `json:"meal_period" binding:"omitempty,mealperiod"`
	Status     *string `json:"status" binding:"omitempty,oneof=pending confirmed cancelled completed no_show"`
	Notes      *string `json:"notes" binding:"omitempty,max=1000"`
}

// CreateReservation -> reservasi dari tamu lewat website
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	in := req.input()
	// guests never choose the status
	in.Status = ""

	reservation, err := rc.Service.CreateGuest(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reserva recebida com sucesso!", reservation)
}

// Availability -> sisa kursi per periode untuk satu tanggal
func (rc *ReservationController) Availability(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = rc.Service.Today()
	}

	occupancy, err := rc.Service.Availability(c.Request.Context(), date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Disponibilidade de vagas", occupancy)
}

func (rc *ReservationController) ListReservations(c *gin.Context) {
	reservations, err := rc.Service.List(c.Request.Context(), c.Query("date"), c.Query("status"), c.Query("meal_period"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Lista de reservas", reservations)
}

func (rc *ReservationController) TodayReservations(c *gin.Context) {
	summary, err := rc.Service.TodaySummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservas de hoje", summary)
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	reservation, err := rc.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalhes da reserva", reservation)
}

// AdminCreateReservation -> reservasi dicatat staf (tanpa aturan 24 jam)
func (rc *ReservationController) AdminCreateReservation(c *gin.Context) {
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	reservation, err := rc.Service.CreateAdmin(c.Request.Context(), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Reservation %d created by %s", reservation.ID, c.GetString("subject"))
	utils.RespondJSON(c, http.StatusCreated, "Reserva criada com sucesso!", reservation)
}

func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req reservationPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	reservation, err := rc.Service.Update(c.Request.Context(), id, services.ReservationUpdate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Date:       req.Date,
		Time:       req.Time,
		Guests:     req.Guests,
		MealPeriod: req.MealPeriod,
		Status:     req.Status,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reserva atualizada com sucesso!", reservation)
}

func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed no_show"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	reservation, err := rc.Service.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Status da reserva atualizado!", reservation)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	if err := rc.Service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reserva excluída com sucesso!", nil)
}

func reservationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondMessage(c, http.StatusBadRequest, "ID de reserva inválido.")
		return 0, false
	}
	return uint(id), true
}
