package model

// User is the read-only view of an account owned by the identity service.
type User struct {
	ID       string `bson:"_id" db:"id" json:"id"`
	Username string `bson:"username" db:"username" json:"username"`
	Email    string `bson:"email" db:"email" json:"email,omitempty"`
}
