package http

import (
	"github.com/pom-bolt/pombolt-backend/internal/deploy"
)

type createReq struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type addFilesReq struct {
	// Files maps path -> content. Content is a UTF-8 string; generated
	// sources are text-typical.
	Files map[string]string `json:"files"`
}

type deleteFilesReq struct {
	Paths []string `json:"paths"`
}

type addRequirementReq struct {
	Content string `json:"content"`
}

type deployReq struct {
	Target      string              `json:"target,omitempty"`
	Credentials *deploy.Credentials `json:"credentials,omitempty"`
}

type listQuery struct {
	Limit         int    `form:"limit"`
	SortBy        string `form:"sortBy"`
	SortDirection string `form:"sortDirection"`
}
