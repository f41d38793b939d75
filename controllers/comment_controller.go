package controllers

import (
	"strconv"
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

// CommentController manages comments on posts.
type CommentController struct {
	db     *gorm.DB
	cache  utils.Cache
	events events.Publisher
	log    *zap.Logger
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB, cache utils.Cache, pub events.Publisher, log *zap.Logger) *CommentController {
	return &CommentController{db: db, cache: cache, events: pub, log: log}
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
	PostID  uint   `json:"post_id" binding:"required,gt=0"`
}

type updateCommentRequest struct {
	Content *string `json:"content" binding:"omitempty,min=1"`
}

// CreateComment attaches a comment by the authenticated user to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	user, err := identity(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	var req createCommentRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}
	content := strings.TrimSpace(utils.Sanitize(req.Content))
	if content == "" {
		utils.Error(ctx, utils.Validation(utils.FieldError{Field: "content", Message: "cannot be empty"}))
		return
	}

	db := c.db.WithContext(ctx.Request.Context())
	var post models.Post
	if err := loadOr404(db, &post, req.PostID, "post"); err != nil {
		utils.Error(ctx, err)
		return
	}

	comment := models.Comment{
		Content: content,
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := db.Create(&comment).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	comment.Author = user

	c.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	publish(ctx.Request.Context(), c.events, c.log, events.New(events.CommentCreated, comment.ID, user.ID))
	utils.Created(ctx, newCommentResponse(comment))
}

// ListComments returns comments oldest first, optionally narrowed to one post.
func (c *CommentController) ListComments(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	query := c.db.WithContext(ctx.Request.Context()).Model(&models.Comment{})

	if raw := strings.TrimSpace(ctx.Query("post_id")); raw != "" {
		postID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || postID == 0 {
			utils.Error(ctx, utils.Validation(utils.FieldError{Field: "post_id", Message: "must be a positive integer"}))
			return
		}
		query = query.Where("post_id = ?", postID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	var comments []models.Comment
	if err := query.Preload("Author").Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&comments).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newListResponse(comments, newCommentResponse, page, pageSize, total))
}

// GetComment returns a single comment with its author.
func (c *CommentController) GetComment(ctx *gin.Context) {
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	var comment models.Comment
	if err := loadOr404(c.db.WithContext(ctx.Request.Context()).Preload("Author"), &comment, id, "comment"); err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newCommentResponse(comment))
}

// UpdateComment lets the author edit the comment text.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	comment, user, ok := c.authorize(ctx)
	if !ok {
		return
	}

	var req updateCommentRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}
	if req.Content != nil {
		content := strings.TrimSpace(utils.Sanitize(*req.Content))
		if content == "" {
			utils.Error(ctx, utils.Validation(utils.FieldError{Field: "content", Message: "cannot be empty"}))
			return
		}
		comment.Content = content
	}

	if err := c.db.WithContext(ctx.Request.Context()).Save(comment).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	comment.Author = user

	c.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	utils.Success(ctx, newCommentResponse(*comment))
}

// DeleteComment removes a comment; only its author may call it.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	comment, _, ok := c.authorize(ctx)
	if !ok {
		return
	}
	if err := c.db.WithContext(ctx.Request.Context()).Delete(&models.Comment{}, comment.ID).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	c.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	utils.NoContent(ctx)
}

func (c *CommentController) authorize(ctx *gin.Context) (*models.Comment, *models.User, bool) {
	user, err := identity(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return nil, nil, false
	}
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return nil, nil, false
	}
	var comment models.Comment
	if err := loadOr404(c.db.WithContext(ctx.Request.Context()), &comment, id, "comment"); err != nil {
		utils.Error(ctx, err)
		return nil, nil, false
	}
	if err := auth.AuthorizeMutation(user, comment); err != nil {
		utils.Error(ctx, middleware.AuthError(err))
		return nil, nil, false
	}
	return &comment, user, true
}
