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

// PostController manages CRUD operations for posts.
type PostController struct {
	db     *gorm.DB
	cache  utils.Cache
	events events.Publisher
	log    *zap.Logger
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cache utils.Cache, pub events.Publisher, log *zap.Logger) *PostController {
	return &PostController{db: db, cache: cache, events: pub, log: log}
}

type createPostRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Content string `json:"content"`
}

type updatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content *string `json:"content"`
}

// CreatePost stores a post owned by the authenticated user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user, err := identity(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	var req createPostRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}

	title := utils.SanitizeText(req.Title)
	if title == "" {
		utils.Error(ctx, utils.Validation(utils.FieldError{Field: "title", Message: "cannot be empty"}))
		return
	}

	post := models.Post{
		Title:   title,
		Content: utils.Sanitize(req.Content),
		UserID:  user.ID,
	}
	if err := p.db.WithContext(ctx.Request.Context()).Create(&post).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	post.Author = user

	p.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	publish(ctx.Request.Context(), p.events, p.log, events.New(events.PostCreated, post.ID, user.ID))
	utils.Created(ctx, newPostResponse(post))
}

// ListPosts returns posts newest first, optionally filtered by a search term.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	query := p.db.WithContext(ctx.Request.Context()).Model(&models.Post{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, err)
		return
	}

	var posts []models.Post
	if err := query.Preload("Author").Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newListResponse(posts, newPostResponse, page, pageSize, total))
}

// GetPost returns a single post with its comments in posting order.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	db := p.db.WithContext(ctx.Request.Context()).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments.Author")

	var post models.Post
	if err := loadOr404(db, &post, id, "post"); err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newPostDetailResponse(post))
}

// ListComments returns the comments of one post.
func (p *PostController) ListComments(ctx *gin.Context) {
	id, err := utils.ParseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	db := p.db.WithContext(ctx.Request.Context())
	var post models.Post
	if err := loadOr404(db, &post, id, "post"); err != nil {
		utils.Error(ctx, err)
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	query := db.Model(&models.Comment{}).Where("post_id = ?", post.ID)

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

// UpdatePost applies a partial update; only the author may call it.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, user, ok := p.authorize(ctx)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}
	if req.Title != nil {
		title := utils.SanitizeText(*req.Title)
		if title == "" {
			utils.Error(ctx, utils.Validation(utils.FieldError{Field: "title", Message: "cannot be empty"}))
			return
		}
		post.Title = title
	}
	if req.Content != nil {
		post.Content = utils.Sanitize(*req.Content)
	}

	if err := p.db.WithContext(ctx.Request.Context()).Save(post).Error; err != nil {
		utils.Error(ctx, err)
		return
	}
	post.Author = user

	p.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	utils.Success(ctx, newPostResponse(*post))
}

// DeletePost removes the post and its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, user, ok := p.authorize(ctx)
	if !ok {
		return
	}

	err := p.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	p.cache.InvalidatePrefix(ctx.Request.Context(), PostsCachePrefix)
	publish(ctx.Request.Context(), p.events, p.log, events.New(events.PostDeleted, post.ID, user.ID))
	utils.NoContent(ctx)
}

// authorize loads the post named in the path and checks the caller owns it. Failures are written to ctx.
func (p *PostController) authorize(ctx *gin.Context) (*models.Post, *models.User, bool) {
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
	var post models.Post
	if err := loadOr404(p.db.WithContext(ctx.Request.Context()), &post, id, "post"); err != nil {
		utils.Error(ctx, err)
		return nil, nil, false
	}
	if err := auth.AuthorizeMutation(user, post); err != nil {
		utils.Error(ctx, middleware.AuthError(err))
		return nil, nil, false
	}
	return &post, user, true
}
