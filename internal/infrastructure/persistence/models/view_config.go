package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/viewconfig"
	"go.uber.org/zap"
)

var modelLogger = zap.L().Named("persistence.models")

// ViewConfigModel is the persistence model for view configurations
type ViewConfigModel struct {
	ID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	ViewID               string    `gorm:"type:varchar(255);not null"`
	ProcessDefinitionKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_view_config_keys"`
	TaskDefinitionKey    string    `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_view_config_keys"`
	RolesJSON            string    `gorm:"column:roles;type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (ViewConfigModel) TableName() string {
	return "view_configs"
}

// ToDomain converts the model to a view configuration
func (m *ViewConfigModel) ToDomain() *viewconfig.ViewConfig {
	vc := &viewconfig.ViewConfig{
		ID:                   m.ID,
		ViewID:               m.ViewID,
		ProcessDefinitionKey: m.ProcessDefinitionKey,
		TaskDefinitionKey:    m.TaskDefinitionKey,
		Roles:                []string{},
	}
	if m.RolesJSON != "" && m.RolesJSON != "[]" {
		if err := json.Unmarshal([]byte(m.RolesJSON), &vc.Roles); err != nil {
			modelLogger.Warn("failed to parse roles JSON",
				zap.String("view_config_id", m.ID.String()),
				zap.String("raw_json", m.RolesJSON),
				zap.Error(err))
		}
	}
	return vc
}

// ViewConfigModelFromDomain converts a view configuration to its model
func ViewConfigModelFromDomain(vc *viewconfig.ViewConfig) *ViewConfigModel {
	roles := vc.Roles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, _ := json.Marshal(roles)
	return &ViewConfigModel{
		ID:                   vc.ID,
		ViewID:               vc.ViewID,
		ProcessDefinitionKey: vc.ProcessDefinitionKey,
		TaskDefinitionKey:    vc.TaskDefinitionKey,
		RolesJSON:            string(rolesJSON),
	}
}
