package models

import (
	"slices"
	"time"
)

// App is the slice of an application record this service needs. Applications are
// owned by the platform's app lifecycle; here they are only read.
type App struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"org_id,omitempty"`
	OwnerID       string    `json:"owner_id"`
	Collaborators []string  `json:"collaborators,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOwner reports whether userID owns the application.
func (a *App) IsOwner(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// IsCollaborator reports whether userID has been granted write access.
func (a *App) IsCollaborator(userID string) bool {
	return userID != "" && slices.Contains(a.Collaborators, userID)
}

// PrimaryHostname returns the hostname every application answers to.
func (a *App) PrimaryHostname() string {
	return a.ID
}
