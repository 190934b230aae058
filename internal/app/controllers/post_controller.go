package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/helpers"
)

// PostController handles posts and their comment threads
type PostController struct {
	postService services.PostService
}

// NewPostController creates a new PostController
func NewPostController(postService services.PostService) *PostController {
	return &PostController{postService: postService}
}

// GetPosts lists root posts
// @Summary List posts
// @Description Lists root posts, newest first, with authors, communities and direct replies resolved
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param size query int false "Page size (max 100)" default(20) minimum(1) maximum(100)
// @Success 200 {object} dto.StructuredResponse{data=dto.PaginatedResponse{items=[]models.PostWithAuthor}} "Posts retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /posts [get]
func (c *PostController) GetPosts(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.postService.FetchPosts(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	respondPage(ctx, result, "Posts retrieved successfully")
}

// GetPostByID retrieves a post with its direct replies
// @Summary Get post by ID
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=models.PostWithAuthor} "Post retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid post ID format"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (c *PostController) GetPostByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	post, err := c.postService.FetchPostByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(post, "Post retrieved successfully"))
}

// CreatePost creates a root post for the caller
// @Summary Create post
// @Description Creates a root post. communityId is the community's external id; omit it for a personal post.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePostRequest true "Post"
// @Success 201 {object} dto.StructuredResponse{data=models.Post} "Post created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 403 {object} dto.ErrorResponse "Onboarding required"
// @Failure 404 {object} dto.ErrorResponse "Author or community not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /posts [post]
func (c *PostController) CreatePost(ctx *gin.Context) {
	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.postService.CreatePost(ctx.Request.Context(), currentUser(ctx).ExternalID, req.Text, req.CommunityID, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(post, "Post created successfully"))
}

// DeletePost deletes a post and every comment below it
// @Summary Delete post
// @Description Deletes the post and its whole comment subtree. Only the author may delete.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID" Format(uuid)
// @Param path query string false "Revalidation path token"
// @Success 200 {object} dto.StructuredResponse{data=dto.SuccessResponse} "Post deleted successfully"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Failure 500 {object} dto.ErrorResponse "Cascade failed and was rolled back"
// @Router /posts/{id} [delete]
func (c *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.postService.DeletePost(ctx.Request.Context(), id, currentUser(ctx).ID, ctx.Query("path")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.SuccessResponse{Message: "Post deleted"}, "Post deleted successfully"))
}

// AddComment replies to a post or comment
// @Summary Comment on post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parent post ID" Format(uuid)
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} dto.StructuredResponse{data=models.Reply} "Comment added successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 404 {object} dto.ErrorResponse "Parent post not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /posts/{id}/comments [post]
func (c *PostController) AddComment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user := currentUser(ctx)
	node, err := c.postService.AddCommentToPost(ctx.Request.Context(), id, req.Text, user.ID, req.Path)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewStructuredResponse(dto.ReplyFromNode(node, user.Summary()), "Comment added successfully"))
}

// GetDescendants returns the whole comment tree below a post in pre-order
// @Summary Get comment thread
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID" Format(uuid)
// @Success 200 {object} dto.StructuredResponse{data=[]dto.ThreadNodeResponse} "Thread retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Failure 500 {object} dto.ErrorResponse "Thread too deep or internal error"
// @Router /posts/{id}/thread [get]
func (c *PostController) GetDescendants(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	nodes, err := c.postService.FetchDescendants(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStructuredResponse(dto.FromThreadNodes(nodes), "Thread retrieved successfully"))
}
