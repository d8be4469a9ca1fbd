package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAgent      Role = "Agent"
	RoleCounsellor Role = "Counsellor"
	RoleAdmin      Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleCounsellor, RoleAdmin:
		return true
	}
	return false
}

// User is a staff member or external agent able to sign in.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone" bson:"phone"`
	PasswordHash string             `json:"-" bson:"password"`
	Role         Role               `json:"role" bson:"role"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}
