package types

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TeamCreateRequest struct {
	WorkspaceID string `json:"workspace_id" validate:"required,uuid4"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type EnvironmentCreateRequest struct {
	Name      string `json:"name" validate:"required"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
	SortOrder int    `json:"sort_order"`
}

type ReleaseCreateRequest struct {
	TeamID       string         `json:"team_id" validate:"required,uuid4"`
	Name         string         `json:"name" validate:"required"`
	Version      string         `json:"version"`
	ChangeWindow map[string]any `json:"change_window"`
}

type ReleaseUpdateRequest struct {
	Name         *string        `json:"name" validate:"omitempty,min=1"`
	Version      *string        `json:"version"`
	ChangeWindow map[string]any `json:"change_window"`
}

type StageCreateRequest struct {
	EnvironmentID   string `json:"environment_id" validate:"omitempty,uuid4"`
	EnvironmentName string `json:"environment_name"`
	Color           string `json:"color" validate:"omitempty,hexcolor"`
}

type StageUpdateRequest struct {
	Status    *string `json:"status" validate:"omitempty,oneof=not_started in_progress blocked done"`
	StartedAt *string `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
}

type StageApproveRequest struct {
	Note string `json:"note"`
}

type TaskCreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Details     string `json:"details"`
	Owner       string `json:"owner"`
	Required    *bool  `json:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=todo doing done na"`
	EvidenceURL string `json:"evidence_url" validate:"omitempty,url"`
}

type TaskUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Details     *string `json:"details"`
	Owner       *string `json:"owner"`
	Required    *bool   `json:"required"`
	Status      *string `json:"status" validate:"omitempty,oneof=todo doing done na"`
	EvidenceURL *string `json:"evidence_url" validate:"omitempty,url"`
}

type BlockerCreateRequest struct {
	Severity string `json:"severity" validate:"omitempty,oneof=P1 P2 P3"`
	Reason   string `json:"reason" validate:"required"`
	Owner    string `json:"owner"`
	ETA      string `json:"eta"`
}

type BlockerUpdateRequest struct {
	Severity *string `json:"severity" validate:"omitempty,oneof=P1 P2 P3"`
	Reason   *string `json:"reason" validate:"omitempty,min=1"`
	Owner    *string `json:"owner"`
	ETA      *string `json:"eta"`
	Active   *bool   `json:"active"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}
