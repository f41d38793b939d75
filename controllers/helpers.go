package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Winter-Krimmert/Advanced-Blog-API/events"
	"github.com/Winter-Krimmert/Advanced-Blog-API/middleware"
	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// PostsCachePrefix namespaces cached GET responses under /posts.
const PostsCachePrefix = "cache:posts:"

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

// identity returns the authenticated user; routes without the gate get ErrMissingToken.
func identity(ctx *gin.Context) (*models.User, error) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		return nil, utils.ErrMissingToken
	}
	return user, nil
}

// loadOr404 loads dest by primary key, translating a missing row into a 404 for resource.
func loadOr404(db *gorm.DB, dest interface{}, id uint, resource string) error {
	if err := db.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(resource)
		}
		return err
	}
	return nil
}

func publish(ctx context.Context, pub events.Publisher, log *zap.Logger, evt events.Event) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, evt); err != nil {
		log.Warn("publish event failed", zap.String("type", evt.Type), zap.Uint("subject_id", evt.SubjectID), zap.Error(err))
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// hashPassword reports multi-byte passwords over bcrypt's limit as a validation failure.
func hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", utils.Validation(utils.FieldError{Field: "password", Message: "must be at most 72 bytes"})
	}
	return hash, err
}
