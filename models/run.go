package models

import (
	"time"

	"gorm.io/datatypes"
)

// RunRecord is the immutable batch record written once when a guided run completes
type RunRecord struct {
	ID          string                                 `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID   string                                 `json:"projectId" gorm:"type:uuid;not null;index"`
	ProjectName string                                 `json:"projectName" gorm:"not null"`
	BatchCode   string                                 `json:"batchCode" gorm:"type:varchar(16);not null;index"`
	OperatorID  string                                 `json:"operatorId,omitempty" gorm:"index"`
	StartTime   time.Time                              `json:"startTime"`
	EndTime     time.Time                              `json:"endTime"`
	Duration    string                                 `json:"duration"`
	Data        datatypes.JSONType[map[string]float64] `json:"data"`
	CreatedAt   time.Time                              `json:"createdAt"`
}

// Values returns a copy of the recorded step values
func (r RunRecord) Values() map[string]float64 {
	src := r.Data.Data()
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
