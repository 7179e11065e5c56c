// Package model defines the stored entities and their explicit schemas.
package model

import (
	"fmt"
	"time"
)

// Stored field names. They are part of the store contract.
const (
	FieldOwnerID       = "ownerId"
	FieldDogID         = "dogId"
	FieldName          = "name"
	FieldBirthDate     = "birthDate"
	FieldBiologicalSex = "biologicalSex"
	FieldImageURL      = "imageUrl"
	FieldContent       = "content"
	FieldDate          = "date"
	FieldComplete      = "complete"
	FieldTitle         = "title"
	FieldDescription   = "description"
)

// BiologicalSex of a dog.
type BiologicalSex string

const (
	Male   BiologicalSex = "male"
	Female BiologicalSex = "female"
)

// ParseBiologicalSex validates s.
func ParseBiologicalSex(s string) (BiologicalSex, error) {
	switch BiologicalSex(s) {
	case Male, Female:
		return BiologicalSex(s), nil
	}
	return "", fmt.Errorf("unknown biological sex %q", s)
}

// Dog is a dog owned by one owner.
type Dog struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"ownerId"`
	Name          string        `json:"name"`
	BirthDate     time.Time     `json:"birthDate"`
	BiologicalSex BiologicalSex `json:"biologicalSex"`
	ImageURL      string        `json:"imageUrl,omitempty"`
}

// Schedule is a dated task for one dog.
type Schedule struct {
	ID       string    `json:"id"`
	OwnerID  string    `json:"ownerId"`
	DogID    string    `json:"dogId"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	Complete bool      `json:"complete"`
}

// Certificate is a dated record (vaccination, license, ...) for one dog.
type Certificate struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	DogID       string    `json:"dogId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Date        time.Time `json:"date"`
}
