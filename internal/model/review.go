package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a product review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Review is a customer product review. Only approved reviews contribute to
// the product's average rating; the aggregate is recomputed in the same
// transaction as the moderation decision.
type Review struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	ProductID uuid.UUID    `json:"productId" db:"product_id"`
	UserID    string       `json:"userId" db:"user_id"`
	Rating    int          `json:"rating" db:"rating"`
	Comment   string       `json:"comment,omitempty" db:"comment"`
	Status    ReviewStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}

// SubmitReviewRequest is the payload for submitting a review.
type SubmitReviewRequest struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// ModerateReviewRequest is the payload for approving or rejecting a review.
type ModerateReviewRequest struct {
	Approve bool `json:"approve"`
}
