package controllers

import (
	"time"

	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
)

type userResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type authorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type postResponse struct {
	ID        uint              `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	UserID    uint              `json:"user_id"`
	Author    *authorResponse   `json:"author,omitempty"`
	Comments  []commentResponse `json:"comments,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// postDetailResponse always carries the comment list, even when empty.
type postDetailResponse struct {
	postResponse
	Comments []commentResponse `json:"comments"`
}

type commentResponse struct {
	ID         uint            `json:"id"`
	Content    string          `json:"content"`
	UserID     uint            `json:"user_id"`
	PostID     uint            `json:"post_id"`
	Author     *authorResponse `json:"author,omitempty"`
	DatePosted time.Time       `json:"date_posted"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination pagination `json:"pagination"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newAuthorResponse(u *models.User) *authorResponse {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &authorResponse{ID: u.ID, Username: u.Username}
}

func newPostResponse(p models.Post) postResponse {
	resp := postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.UserID,
		Author:    newAuthorResponse(p.Author),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if len(p.Comments) > 0 {
		resp.Comments = mapSlice(p.Comments, newCommentResponse)
	}
	return resp
}

func newPostDetailResponse(p models.Post) postDetailResponse {
	return postDetailResponse{
		postResponse: newPostResponse(p),
		Comments:     mapSlice(p.Comments, newCommentResponse),
	}
}

func newCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		Content:    c.Content,
		UserID:     c.UserID,
		PostID:     c.PostID,
		Author:     newAuthorResponse(c.Author),
		DatePosted: c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func newListResponse[M, T any](items []M, convert func(M) T, page, pageSize int, total int64) listResponse[T] {
	return listResponse[T]{
		Items: mapSlice(items, convert),
		Pagination: pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}

func mapSlice[M, T any](in []M, convert func(M) T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, convert(v))
	}
	return out
}
