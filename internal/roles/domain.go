package roles

import (
	"time"

	"github.com/fleetline/backoffice/internal/rbac"
)

type roleRequest struct {
	Name        string   `json:"name" validate:"required,max=64"`
	DisplayName string   `json:"display_name" validate:"max=128"`
	Permissions []string `json:"permissions" validate:"dive,required,max=96"`
}

type updateRoleRequest struct {
	DisplayName string   `json:"display_name" validate:"max=128"`
	Permissions []string `json:"permissions" validate:"dive,required,max=96"`
}

type roleView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Admin       bool      `json:"admin"`
	Permissions []string  `json:"permissions"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newRoleView(role rbac.Role, effective []string) roleView {
	if effective == nil {
		effective = []string{}
	}
	return roleView{
		ID:          role.ID,
		Name:        role.Name,
		DisplayName: role.DisplayName,
		Admin:       role.IsAdmin(),
		Permissions: effective,
		UpdatedAt:   role.UpdatedAt,
	}
}
