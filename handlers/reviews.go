package handlers

import (
	"errors"
	"net/http"
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/cache"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateReviewRequest struct {
	FoodRating     int    `json:"food_rating" binding:"required,min=1,max=5"`
	DeliveryRating int    `json:"delivery_rating" binding:"required,min=1,max=5"`
	Comment        string `json:"comment" binding:"max=1000"`
}

// foldRating adds one sample to a stored running mean. Both columns are read
// and written by the same statement, so concurrent reviews cannot drop one.
func foldRating(value int) map[string]any {
	return map[string]any{
		"rating":       gorm.Expr("ROUND(CAST((rating * rating_count + ?) / (rating_count + 1) AS NUMERIC), 2)", value),
		"rating_count": gorm.Expr("rating_count + 1"),
	}
}

// CreateReview records the customer's single review of a delivered order and
// folds it into the restaurant and courier ratings.
func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreateReviewRequest
	if !bind(c, &req) {
		return
	}
	customerID := middleware.GetUserID(c)

	var review models.Review
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("customer_id = ?", customerID).First(&order, id).Error; err != nil {
			return orNotFound(err, "Order")
		}
		if order.Status != models.StatusDelivered {
			return apperr.Unprocessable("Only delivered orders can be reviewed").
				WithDetails(map[string]any{"current_status": order.Status})
		}

		var delivery models.Delivery
		err := tx.Where("order_id = ? AND status = ?", order.ID, models.DeliveryDelivered).
			Order("id desc").First(&delivery).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		review = models.Review{
			OrderID:        order.ID,
			CustomerID:     customerID,
			RestaurantID:   order.RestaurantID,
			FoodRating:     req.FoodRating,
			DeliveryRating: req.DeliveryRating,
			Comment:        strings.TrimSpace(req.Comment),
		}
		if delivery.ID != 0 {
			review.PersonnelID = &delivery.PersonnelID
		}
		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("This order has already been reviewed")
			}
			return err
		}

		if err := tx.Model(&models.Restaurant{}).Where("id = ?", order.RestaurantID).
			Updates(foldRating(req.FoodRating)).Error; err != nil {
			return err
		}
		if review.PersonnelID == nil {
			return nil
		}
		return tx.Model(&models.DeliveryPersonnel{}).Where("id = ?", *review.PersonnelID).
			Updates(foldRating(req.DeliveryRating)).Error
	})
	if err != nil {
		fail(c, err)
		return
	}

	keys := []string{cache.RestaurantDashboardKey(review.RestaurantID)}
	if review.PersonnelID != nil {
		keys = append(keys, cache.PersonnelDashboardKey(*review.PersonnelID))
	}
	h.invalidate(c.Request.Context(), keys...)
	respond(c, http.StatusCreated, gin.H{"message": "Review submitted", "review": review})
}

// ListRestaurantReviews is public.
func (h *Handler) ListRestaurantReviews(c *gin.Context) {
	restaurant, ok := h.publicRestaurant(c)
	if !ok {
		return
	}
	query := h.db(c).Model(&models.Review{}).
		Where("restaurant_id = ?", restaurant.ID).
		Order("created_at desc")

	var reviews []models.Review
	meta, err := paginate(query, pageParams(c), &reviews, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Customer", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") })
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"restaurant_id": restaurant.ID,
		"rating":        restaurant.Rating,
		"rating_count":  restaurant.RatingCount,
		"reviews":       reviews,
		"pagination":    meta,
	})
}
