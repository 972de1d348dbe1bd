package handlers

import (
	"time"

	"github.com/socialapp/backend/internal/models"
)

type tokensResponse struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo"`
}

type authResponse struct {
	User   userResponse   `json:"user"`
	Tokens tokensResponse `json:"tokens"`
}

type friendRequestResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	SenderName  string     `json:"senderName"`
	ReceiverID  string     `json:"receiverId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

type friendResponse struct {
	UserID     string    `json:"userId"`
	FriendID   string    `json:"friendId"`
	FriendName string    `json:"friendName"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type postResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTokensResponse(t models.SessionTokens) tokensResponse {
	return tokensResponse{
		AccessToken:      t.AccessToken,
		AccessExpiresAt:  t.AccessExpiresAt,
		RefreshToken:     t.RefreshToken,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}

func toUserResponse(u models.User, withEmail bool) userResponse {
	resp := userResponse{ID: u.ID, Name: u.Name, Photo: u.Photo}
	if withEmail {
		resp.Email = u.Email
	}
	return resp
}

func toFriendRequestResponse(r models.FriendRequest) friendRequestResponse {
	return friendRequestResponse{
		ID:          r.ID,
		SenderID:    r.SenderID,
		SenderName:  r.SenderName,
		ReceiverID:  r.ReceiverID,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		RespondedAt: r.RespondedAt,
	}
}

func toFriendResponse(e models.FriendshipEdge) friendResponse {
	return friendResponse{
		UserID:     e.UserID1,
		FriendID:   e.UserID2,
		FriendName: e.FriendName,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
	}
}

func toPostResponse(p models.EnrichedPost) postResponse {
	return postResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		UserName:  p.UserName,
		UserPhoto: p.UserPhoto,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
	}
}
