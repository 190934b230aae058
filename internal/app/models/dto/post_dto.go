package dto

// CreatePostRequest creates a root post
type CreatePostRequest struct {
	Text        string `json:"text" binding:"required,min=3" example:"Anyone up for badminton tonight?"`
	CommunityID string `json:"communityId" example:"org_2xyz"`
	RevalidateRequest
}

// CommentRequest adds a reply to a post
type CommentRequest struct {
	Text string `json:"text" binding:"required,min=3" example:"I'm in!"`
	RevalidateRequest
}
