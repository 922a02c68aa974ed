package handlers

import (
	"net/http"
	"strconv"

	"github.com/edupulse/emis-api/internal/models"
	"github.com/edupulse/emis-api/internal/repository"
	"github.com/edupulse/emis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// @Summary List Categories
// @Description Get a paginated list of data collection categories
// @Tags Categories
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search term"
// @Param status query string false "Filter by status (active, archived)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories [get]
func (h *CategoryHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")

	categories, total, err := h.categoryService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories, "pagination": gin.H{"total": total}})
}

// @Summary Get Category
// @Description Get a category with its column definitions
// @Tags Categories
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{category_id} [get]
func (h *CategoryHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	category, err := h.categoryService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// @Summary Create Category
// @Description Create a new data collection category (Admin)
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body models.Category true "Category Data"
// @Success 201 {object} models.Category
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var category models.Category
	if err := BindNestedOrFlat(c, "category", &category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.categoryService.Create(c.Request.Context(), &category); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// @Summary Update Category
// @Description Update an existing category (Admin)
// @Tags Categories
// @Accept json
// @Produce json
// @Param category_id path int true "Category ID"
// @Param request body models.Category true "Category Data"
// @Success 200 {object} models.Category
// @Security BearerAuth
// @Router /categories/{category_id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("category_id"), 10, 32)
	var category models.Category
	if err := BindNestedOrFlat(c, "category", &category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category.ID = uint(id)

	if err := h.categoryService.Update(c.Request.Context(), &category); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}
