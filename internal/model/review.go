package model

import "time"

// Review represents a user’s review of a listing.
type Review struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	Comment   string    `bson:"comment" db:"comment" json:"comment"`
	Rating    int       `bson:"rating" db:"rating" json:"rating"`
	Author    string    `bson:"author" db:"author_id" json:"author"`
	CreatedAt time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}

type ReviewInput struct {
	Comment string
	Rating  int
}
