package controllers

import (
	"net/http"
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

// AuthController handles registration and token issuance.
type AuthController struct {
	db       *gorm.DB
	codec    *auth.TokenCodec
	verifier *auth.CredentialVerifier
	events   events.Publisher
	log      *zap.Logger
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, codec *auth.TokenCodec, verifier *auth.CredentialVerifier, pub events.Publisher, log *zap.Logger) *AuthController {
	return &AuthController{db: db, codec: codec, verifier: verifier, events: pub, log: log}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Register creates an account with a bcrypt-hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}

	user, err := createUser(ctx, a.db, req)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	publish(ctx.Request.Context(), a.events, a.log, events.New(events.UserRegistered, user.ID, user.ID))

	utils.Created(ctx, gin.H{
		"message": "User created successfully",
		"user":    newUserResponse(*user),
	})
}

// Token verifies user credentials and issues a bearer token. Served on /token and /login.
func (a *AuthController) Token(ctx *gin.Context) {
	var req loginRequest
	if err := utils.BindJSON(ctx, &req); err != nil {
		utils.Error(ctx, err)
		return
	}

	user, err := a.verifier.VerifyCredentials(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		a.log.Info("login rejected", zap.String("username", req.Username), zap.Error(err))
		utils.Error(ctx, middleware.AuthError(err))
		return
	}

	token, expiresAt, err := a.codec.Issue(user.ID)
	if err != nil {
		utils.Error(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusOK, tokenResponse{
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := identity(ctx)
	if err != nil {
		utils.Error(ctx, err)
		return
	}
	utils.Success(ctx, newUserResponse(*user))
}

// createUser validates uniqueness, hashes the password and inserts the user.
func createUser(ctx *gin.Context, db *gorm.DB, req registerRequest) (*models.User, error) {
	name := utils.SanitizeText(req.Name)
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var fields []utils.FieldError
	if name == "" {
		fields = append(fields, utils.FieldError{Field: "name", Message: "is required"})
	}
	if username == "" {
		fields = append(fields, utils.FieldError{Field: "username", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, utils.Validation(fields...)
	}

	tx := db.WithContext(ctx.Request.Context())
	if taken, err := credentialsTaken(tx, username, email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, utils.Conflict("username or email already exists")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := tx.Create(&user).Error; err != nil {
		if isDuplicate(err) {
			return nil, utils.Conflict("username or email already exists")
		}
		return nil, err
	}
	return &user, nil
}

// credentialsTaken reports whether another user already owns username or email.
func credentialsTaken(db *gorm.DB, username, email string, exceptID uint) (bool, error) {
	q := db.Model(&models.User{})
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return false, nil
	}
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
