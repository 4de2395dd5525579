package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultRating = 1200
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	emailRegex    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

type RatingChange struct {
	ContestID primitive.ObjectID `bson:"contestId" json:"contestId"`
	Rating    int                `bson:"rating" json:"rating"`
	Change    int                `bson:"change" json:"change"`
	Date      time.Time          `bson:"date" json:"date"`
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username       string             `bson:"username" json:"username"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password" json:"-"`
	Role           string             `bson:"role" json:"role"`
	IsVerified     bool               `bson:"isVerified" json:"isVerified"`
	VerifyToken    string             `bson:"verifyToken,omitempty" json:"-"`
	VerifyTokenExp *time.Time         `bson:"verifyTokenExp,omitempty" json:"-"`
	Avatar         string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Institute      string             `bson:"institute,omitempty" json:"institute,omitempty"`
	YearOfStudy    string             `bson:"yearofstudy,omitempty" json:"yearofstudy,omitempty"`
	Rating         int                `bson:"rating" json:"rating"`
	RatingHistory  []RatingChange     `bson:"ratingHistory" json:"ratingHistory"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile is the user document with credentials, contact and bookkeeping fields removed.
type PublicProfile struct {
	ID            primitive.ObjectID `json:"_id"`
	Username      string             `json:"username"`
	Avatar        string             `json:"avatar,omitempty"`
	Institute     string             `json:"institute,omitempty"`
	YearOfStudy   string             `json:"yearofstudy,omitempty"`
	Rating        int                `json:"rating"`
	RatingHistory []RatingChange     `json:"ratingHistory"`
}

func (u *User) Public() PublicProfile {
	history := u.RatingHistory
	if history == nil {
		history = []RatingChange{}
	}
	return PublicProfile{
		ID:            u.ID,
		Username:      u.Username,
		Avatar:        u.Avatar,
		Institute:     u.Institute,
		YearOfStudy:   u.YearOfStudy,
		Rating:        u.Rating,
		RatingHistory: history,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if r.Username == "" {
		return errors.New("username cannot be empty")
	}
	if !usernameRegex.MatchString(r.Username) {
		return errors.New("username must be 3 to 30 letters, digits or underscores")
	}
	if !emailRegex.MatchString(r.Email) {
		return errors.New("invalid email format")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Institute   string `json:"institute"`
	YearOfStudy string `json:"yearofstudy"`
}

func (r *UpdateProfileRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Avatar = strings.TrimSpace(r.Avatar)
	r.Institute = strings.TrimSpace(r.Institute)
	r.YearOfStudy = strings.TrimSpace(r.YearOfStudy)

	if r.Username == "" || r.Avatar == "" || r.Institute == "" || r.YearOfStudy == "" {
		return errors.New("All fields are required")
	}
	if !usernameRegex.MatchString(r.Username) {
		return errors.New("username must be 3 to 30 letters, digits or underscores")
	}
	return nil
}

type RatingUpdate struct {
	UserID primitive.ObjectID `json:"userId"`
	Rating int                `json:"rating"`
}

type RatingUpdateRequest struct {
	Updates []RatingUpdate `json:"updates" binding:"required"`
}

func (r *RatingUpdateRequest) Validate() error {
	if len(r.Updates) == 0 {
		return errors.New("at least one rating update is required")
	}
	for _, u := range r.Updates {
		if u.UserID.IsZero() {
			return errors.New("every update needs a userId")
		}
		if u.Rating < 0 {
			return errors.New("rating cannot be negative")
		}
	}
	return nil
}
