package model

import "time"

// MaintenanceType categorises a maintenance request.
type MaintenanceType string

const (
	MaintPlumbing   MaintenanceType = "Plumbing"
	MaintElectrical MaintenanceType = "Electrical"
	MaintHVAC       MaintenanceType = "HVAC"
	MaintFurniture  MaintenanceType = "Furniture"
	MaintCleaning   MaintenanceType = "Cleaning"
	MaintOther      MaintenanceType = "Other"
)

// Valid reports whether t is a known maintenance type.
func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintPlumbing, MaintElectrical, MaintHVAC, MaintFurniture, MaintCleaning, MaintOther:
		return true
	}
	return false
}

// MaintenanceStatus is the progress of a maintenance request.
type MaintenanceStatus string

const (
	MaintPending    MaintenanceStatus = "Pending"
	MaintInProgress MaintenanceStatus = "In Progress"
	MaintCompleted  MaintenanceStatus = "Completed"
	MaintCancelled  MaintenanceStatus = "Cancelled"
)

// Valid reports whether s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintPending, MaintInProgress, MaintCompleted, MaintCancelled:
		return true
	}
	return false
}

// Closed reports whether no further work is expected on the request.
func (s MaintenanceStatus) Closed() bool { return s == MaintCompleted || s == MaintCancelled }

// MaintenanceRequest mirrors a row of the `maintenance_requests` table.
type MaintenanceRequest struct {
	ID                 uint64            `json:"id"`
	RoomID             uint64            `json:"room_id"`
	ReportedBy         uint64            `json:"reported_by"`
	AssignedTo         *uint64           `json:"assigned_to,omitempty"`
	Type               MaintenanceType   `json:"type"`
	Description        string            `json:"description"`
	Priority           Priority          `json:"priority"`
	Status             MaintenanceStatus `json:"status"`
	EstimatedCostCents int64             `json:"estimated_cost_cents"`
	ActualCostCents    int64             `json:"actual_cost_cents"`
	ScheduledDate      *time.Time        `json:"scheduled_date,omitempty"`
	CompletedDate      *time.Time        `json:"completed_date,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// MaintenanceFilter narrows maintenance listings.
type MaintenanceFilter struct {
	Status     MaintenanceStatus
	Priority   Priority
	RoomID     uint64
	AssignedTo uint64
}

// MaintenancePatch carries the fields of a request update. Nil fields are
// left unchanged.
type MaintenancePatch struct {
	Type               *MaintenanceType
	Description        *string
	Priority           *Priority
	Status             *MaintenanceStatus
	EstimatedCostCents *int64
	ScheduledDate      *time.Time
	Notes              *string
}
