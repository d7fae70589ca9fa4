package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-cropadvisor/logger"
	"go-cropadvisor/models"
	"go-cropadvisor/services"
	"go-cropadvisor/utils"
)

// WeatherController 天气代理
type WeatherController struct {
	service *services.WeatherService
	log     *logger.Logger
}

func NewWeatherController(service *services.WeatherService, log *logger.Logger) *WeatherController {
	return &WeatherController{service: service, log: log.With("controller", "WeatherController")}
}

// Current 按城市或经纬度查询当前天气
func (c *WeatherController) Current(ctx *gin.Context) {
	city := ctx.Query("city")
	lat := ctx.Query("lat")
	lon := ctx.Query("lon")

	var (
		w   *models.Weather
		err error
	)
	switch {
	case city != "":
		w, err = c.service.ByCity(ctx.Request.Context(), city)
	case lat != "" && lon != "":
		w, err = c.service.ByCoordinates(ctx.Request.Context(), lat, lon)
	default:
		utils.BadRequest(ctx, "Provide either city or lat & lon")
		return
	}

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		utils.Error(ctx, http.StatusServiceUnavailable, "Weather API key not configured")
		return
	case err != nil:
		c.log.Warn("Weather lookup failed", "city", city, "lat", lat, "lon", lon, "error", err)
		utils.Error(ctx, http.StatusBadGateway, "Failed to fetch weather data")
		return
	}

	ctx.JSON(http.StatusOK, w)
}
