package controllers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Winter-Krimmert/Advanced-Blog-API/auth"
	"github.com/Winter-Krimmert/Advanced-Blog-API/events"
	"github.com/Winter-Krimmert/Advanced-Blog-API/middleware"
	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// UserController manages user accounts.
type UserController struct {
	db     *gorm.DB
	cache  utils.Cache
	events events.Publisher
	log    *zap.Logger
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB, cache utils.Cache, pub events.Publisher, log *zap.Logger) *UserController {
	return &UserController{db: db, cache: cache, events: pub, log: log}
}

type updateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=1,max=72"`
}

// Create registers a user and returns it.
func (u *UserController) Create(ctx *gin.Context) {
	var req registerRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}
	user, err := createUser(ctx, u.db, req)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	publish(ctx.Request.Context(), u.events, u.log, events.New(events.UserRegistered, user.ID, user.ID))
	utils.Created(ctx, newUserResponse(*user))
}

// List returns users page by page.
func (u *UserController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	db := u.db.WithContext(ctx.Request.Context())

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	var users []models.User
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newListResponse(users, newUserResponse, page, pageSize, total))
}

// Get returns a single user.
func (u *UserController) Get(ctx *gin.Context) {
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	var user models.User
	if err := loadOr404(u.db.WithContext(ctx.Request.Context()), &user, id, "user"); err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newUserResponse(user))
}

// Update lets a user change their own profile fields.
func (u *UserController) Update(ctx *gin.Context) {
	user, ok := u.authorizeSelf(ctx)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}

	var username, email string
	if req.Name != nil {
		name := utils.SanitizeText(*req.Name)
		if name == "" {
			utils.Error(ctx, utils.Validation(utils.FieldError{Field: "name", Message: "is required"}))
			return
		}
		user.Name = name
	}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if username == "" {
			utils.Error(ctx, utils.Validation(utils.FieldError{Field: "username", Message: "is required"}))
			return
		}
		user.Username = username
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
		user.Email = email
	}

	db := u.db.WithContext(ctx.Request.Context())
	if taken, err := credentialsTaken(db, username, email, user.ID); err != nil {
		utils.Error(ctx, err)
		return
	} else if taken {
		utils.Error(ctx, utils.Conflict("username or email already exists"))
		return
	}

	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			utils.Error(ctx, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := db.Save(user).Error; err != nil {
		if isDuplicate(err) {
			utils.Error(ctx, utils.Conflict("username or email already exists"))
			return
		}
		utils.Error(ctx, err)
		return
	}
	// author usernames are embedded in cached post responses
	u.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	utils.Success(ctx, newUserResponse(*user))
}

// Delete removes the account together with its posts and every comment attached to them.
func (u *UserController) Delete(ctx *gin.Context) {
	user, ok := u.authorizeSelf(ctx)
	if !ok {
		return
	}

	err := u.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", user.ID)
		if err := tx.Where("user_id = ? OR post_id IN (?)", user.ID, ownPosts).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	u.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	publish(ctx.Request.Context(), u.events, u.log, events.New(events.UserDeleted, user.ID, user.ID))
	utils.NoContent(ctx)
}

// authorizeSelf resolves the target user and checks it is the caller. Failures are written to ctx.
func (u *UserController) authorizeSelf(ctx *gin.Context) (*models.User, bool) {
	caller, err := identity(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return nil, false
	}
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return nil, false
	}
	var target models.User
	if err := loadOr404(u.db.WithContext(ctx.Request.Context()), &target, id, "user"); err != nil {
		utils.Error(ctx, err)
		return nil, false
	}
	if err := auth.AuthorizeMutation(caller, target); err != nil {
		utils.Error(ctx, middleware.AuthError(err))
		return nil, false
	}
	return &target, true
}
