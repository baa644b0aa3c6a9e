package handlers

import (
	"net/http"

	apperrors "escaperooms-directory/internal/errors"
	"escaperooms-directory/internal/models"
	"escaperooms-directory/internal/services"
	"escaperooms-directory/internal/utils"
	"escaperooms-directory/internal/validators"

	"github.com/gin-gonic/gin"
)

const defaultPageLimit = 20

type RoomHandler struct {
	roomService *services.RoomService
	validator   validators.RoomValidator
}

func NewRoomHandler(roomService *services.RoomService, validator validators.RoomValidator) *RoomHandler {
	return &RoomHandler{roomService: roomService, validator: validator}
}

// ListRooms godoc
// @Summary List rooms
// @Description Filtered, paginated list of rooms. Name, city, state and country match case-insensitive substrings; theme matches exactly.
// @Tags Rooms
// @Produce json
// @Param name query string false "Room name"
// @Param city query string false "City"
// @Param state query string false "State"
// @Param country query string false "Country"
// @Param theme query string false "Theme"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination" default(20)
// @Success 200 {object} models.PaginatedRoomsResponse
// @Success 304
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	filter := models.RoomFilter{Limit: defaultPageLimit}
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(apperrors.InvalidParameters(err))
		return
	}
	if err := h.validator.ValidateFilter(&filter); err != nil {
		_ = c.Error(apperrors.InvalidParameters(err))
		return
	}

	res, err := h.roomService.SearchRooms(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	writeJSON(c, http.StatusOK, models.PaginatedRoomsResponse{
		Data: res.Data,
		Meta: utils.BuildPaginationMeta(c.Request.URL.Path, res.Count, filter.Offset, filter.Limit, c.Request.URL.Query()),
	})
}

// GetRoomByID godoc
// @Summary Get room by ID
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} models.Room
// @Failure 404 {object} map[string]interface{}
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetRoomByID(c *gin.Context) {
	id := c.Param("id")
	room, err := h.roomService.GetRoomByID(c.Request.Context(), id)
	h.respondRoom(c, id, room, err)
}

// GetRoomBySlug godoc
// @Summary Get room by slug
// @Tags Rooms
// @Produce json
// @Param slug path string true "Room slug"
// @Success 200 {object} models.Room
// @Failure 404 {object} map[string]interface{}
// @Router /rooms/slug/{slug} [get]
func (h *RoomHandler) GetRoomBySlug(c *gin.Context) {
	slug := c.Param("slug")
	room, err := h.roomService.GetRoomBySlug(c.Request.Context(), slug)
	h.respondRoom(c, slug, room, err)
}

func (h *RoomHandler) respondRoom(c *gin.Context, ref string, room *models.Room, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	if room == nil {
		_ = c.Error(apperrors.NotFound(ref))
		return
	}
	writeJSON(c, http.StatusOK, room)
}

// GetStates godoc
// @Summary Room counts per state
// @Tags Locations
// @Produce json
// @Success 200 {array} models.StateCount
// @Router /states [get]
func (h *RoomHandler) GetStates(c *gin.Context) {
	counts, err := h.roomService.GetStateCounts(c.Request.Context())
	respond(c, counts, err)
}

// GetCities godoc
// @Summary Room counts per city
// @Tags Locations
// @Produce json
// @Param state query string false "Restrict to one state"
// @Success 200 {array} models.CityCount
// @Router /cities [get]
func (h *RoomHandler) GetCities(c *gin.Context) {
	counts, err := h.roomService.GetCityCounts(c.Request.Context(), c.Query("state"))
	respond(c, counts, err)
}

// GetThemes godoc
// @Summary Room counts per theme
// @Tags Themes
// @Produce json
// @Success 200 {array} models.ThemeCount
// @Router /themes [get]
func (h *RoomHandler) GetThemes(c *gin.Context) {
	counts, err := h.roomService.GetThemeCounts(c.Request.Context())
	respond(c, counts, err)
}

// GetCountries godoc
// @Summary Per-country summary
// @Tags Locations
// @Produce json
// @Success 200 {array} models.CountryStats
// @Router /countries [get]
func (h *RoomHandler) GetCountries(c *gin.Context) {
	stats, err := h.roomService.GetCountryStats(c.Request.Context())
	respond(c, stats, err)
}

// GetStats godoc
// @Summary Global directory statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} models.DatabaseStats
// @Router /stats [get]
func (h *RoomHandler) GetStats(c *gin.Context) {
	stats, err := h.roomService.GetDatabaseStats(c.Request.Context())
	respond(c, stats, err)
}

func respond(c *gin.Context, body interface{}, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	writeJSON(c, http.StatusOK, body)
}
