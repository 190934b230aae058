package dto

// EventRequest creates or updates a root event. Image may be a URL or a
// data: URI; the handler stores inline images before calling the service.
type EventRequest struct {
	Title       string `json:"title" binding:"required,min=3" example:"Sunday picnic"`
	Description string `json:"description" binding:"required,min=10" example:"Bring snacks and a mat"`
	Date        string `json:"date" binding:"required" example:"2024-07-18T10:00:00Z"`
	Location    string `json:"location" binding:"required" example:"Botanic Gardens"`
	Image       string `json:"image" binding:"omitempty,imagesrc" example:"https://cdn.bojio.app/e/picnic.png"`
	CommunityID string `json:"communityId" example:"org_2xyz"`
	RevalidateRequest
}

// EventCommentRequest adds a reply to an event
type EventCommentRequest struct {
	Title string `json:"title" binding:"required" example:"Can I bring a friend?"`
	RevalidateRequest
}

// JoinEventResponse reports whether the caller was newly added
type JoinEventResponse struct {
	Joined bool `json:"joined"`
}
