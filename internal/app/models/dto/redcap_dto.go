package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateRedcapServerRequest registers a REDCap instance (superadmin only)
type CreateRedcapServerRequest struct {
	Name       string `json:"name" binding:"required"`
	ServerURL  string `json:"serverUrl" binding:"required,url"`
	Supertoken string `json:"supertoken" binding:"required"`
}

// UpdateRedcapServerRequest patches a REDCap server registration
type UpdateRedcapServerRequest struct {
	Name       *string `json:"name,omitempty"`
	ServerURL  *string `json:"serverUrl,omitempty" binding:"omitempty,url"`
	Supertoken *string `json:"supertoken,omitempty"`
}

// RedcapServerResponse is the projection of a REDCap server registration.
// The supertoken is never returned.
type RedcapServerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ServerURL string    `json:"serverUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRedcapTemplateRequest registers a template project on a server
type CreateRedcapTemplateRequest struct {
	Name  string `json:"name" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// RedcapTemplateResponse is the projection of a template registration.
// The project token is never returned.
type RedcapTemplateResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	RedcapServerID uuid.UUID `json:"redcapServerId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConnectionCheckRequest probes a REDCap server or project connection
type ConnectionCheckRequest struct {
	ServerURL  string `json:"serverUrl" binding:"required,url"`
	Supertoken string `json:"supertoken,omitempty"`
	Token      string `json:"token,omitempty"`
}

// ConnectionCheckResponse reports the probe result
type ConnectionCheckResponse struct {
	Result bool `json:"result"`
}

// SurveyRecordsResponse carries canonical survey records exported for a project
type SurveyRecordsResponse struct {
	Records []map[string]interface{} `json:"records"`
}

// ImportRecordsRequest carries canonical records to push into REDCap
type ImportRecordsRequest struct {
	Records []map[string]interface{} `json:"records" binding:"required,min=1"`
}

// ImportRecordsResponse reports how many records the upstream accepted
type ImportRecordsResponse struct {
	Count int `json:"count"`
}
