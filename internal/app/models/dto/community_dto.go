package dto

// CreateCommunityRequest registers a community under a caller-issued id
type CreateCommunityRequest struct {
	ExternalID string `json:"externalId" binding:"required" example:"org_2xyz"`
	Username   string `json:"username" binding:"required,min=3,max=30,username" example:"picnic_club"`
	Name       string `json:"name" binding:"required,min=3,max=50" example:"Picnic Club"`
	Image      string `json:"image" binding:"omitempty,url"`
	Bio        string `json:"bio" binding:"max=1000"`
	RevalidateRequest
}

// UpdateCommunityRequest edits a community's profile
type UpdateCommunityRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30,username" example:"picnic_club"`
	Name     string `json:"name" binding:"required,min=3,max=50" example:"Picnic Club"`
	Image    string `json:"image" binding:"omitempty,url"`
	Bio      string `json:"bio" binding:"max=1000"`
	RevalidateRequest
}

// MembershipResponse answers whether the caller is a member
type MembershipResponse struct {
	IsMember bool `json:"isMember"`
}

// DeleteCommunityResponse reports how many posts and events the cascade removed
type DeleteCommunityResponse struct {
	Removed int `json:"removed"`
}
