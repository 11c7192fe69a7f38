package models

import "time"

// Review is a user-submitted rating for a catalog item. Scores run 1-10.
// Reviews are created by submission and read back after persistence; there is
// no client-side mutation beyond optimistic UI toggles.
type Review struct {
	ID        string    `json:"id"`
	ContentID int64     `json:"contentId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Score     int       `json:"score"`
	Date      time.Time `json:"date"`
}

// ReviewSubmit is the payload accepted when posting a review.
type ReviewSubmit struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Score int    `json:"score"`
}
