package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

type ProductController struct {
	products *services.ProductService
	uploader *ImageUploader
}

func NewProductController(products *services.ProductService, uploader *ImageUploader) *ProductController {
	return &ProductController{products: products, uploader: uploader}
}

// GetAllProducts supports ?category=, ?available= and ?featured=.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	var filter services.ProductFilter
	if raw := c.Query("category"); raw != "" {
		category := models.Category(raw)
		if !category.Valid() {
			utils.RespondAppError(c, utils.NewValidationError("invalid category %q", raw))
			return
		}
		filter.Category = &category
	}

	var err error
	if filter.Available, err = queryBool(c, "available"); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if filter.Featured, err = queryBool(c, "featured"); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	products, err := pc.products.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (pc *ProductController) GetProductByID(c *gin.Context) {
	product, err := pc.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

// CreateProduct reads a multipart form; the image file is required.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	in, err := pc.parseProductForm(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("image is required"))
		return
	}
	image, err := pc.uploader.Save(c, file)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	in.Image = &image

	product, err := pc.products.Create(c.Request.Context(), in)
	if err != nil {
		pc.uploader.Remove(image)
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct accepts the same form as create with every field optional.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	in, err := pc.parseProductForm(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	current, err := pc.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var newImage string
	if file, err := c.FormFile("image"); err == nil {
		if newImage, err = pc.uploader.Save(c, file); err != nil {
			utils.RespondAppError(c, err)
			return
		}
		in.Image = &newImage
	}

	product, err := pc.products.Update(c.Request.Context(), current.ID, in)
	if err != nil {
		if newImage != "" {
			pc.uploader.Remove(newImage)
		}
		utils.RespondAppError(c, err)
		return
	}
	if newImage != "" && current.Image != newImage {
		pc.uploader.Remove(current.Image)
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	product, err := pc.products.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	pc.uploader.Remove(product.Image)
	utils.RespondJSON(c, http.StatusOK, "Product deleted", nil)
}

// parseProductForm reads the text fields of a product form. Fields that are
// absent stay nil.
func (pc *ProductController) parseProductForm(c *gin.Context) (services.ProductInput, error) {
	var in services.ProductInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		limit := pc.uploader.MaxSize + 1<<20
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		if err := c.Request.ParseMultipartForm(limit); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return in, utils.NewValidationError("request body too large, image must be at most %d MB", pc.uploader.MaxSize>>20)
			}
			return in, utils.NewValidationError("invalid multipart form: %s", err.Error())
		}
	}

	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("category"); ok {
		category := models.Category(v)
		if !category.Valid() {
			return in, utils.NewValidationError("invalid category %q", v)
		}
		in.Category = &category
	}
	if v, ok := c.GetPostForm("price"); ok && v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return in, utils.NewValidationError("invalid price %q", v)
		}
		in.Price = &price
	}
	if v, ok := c.GetPostForm("ingredients"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &in.Ingredients); err != nil {
			return in, utils.NewValidationError("ingredients must be a JSON array of strings")
		}
	}
	if v, ok := c.GetPostForm("sizes"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &in.Sizes); err != nil {
			return in, utils.NewValidationError("sizes must be a JSON array of {name, price}")
		}
	}

	var err error
	if in.Available, err = formBool(c, "available"); err != nil {
		return in, err
	}
	if in.Featured, err = formBool(c, "featured"); err != nil {
		return in, err
	}
	return in, nil
}

func parseBool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, utils.NewValidationError("%s must be true or false", field)
	}
	return &b, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	return parseBool(key, c.Query(key))
}

func formBool(c *gin.Context, key string) (*bool, error) {
	return parseBool(key, c.PostForm(key))
}
