package models

// ProcedureFeedback is the structured patient feedback collected after a
// completed procedure. Aspect maps rate named aspects 0-5, where 0 means
// not applicable (positive) or none (negative severity).
type ProcedureFeedback struct {
	BaseModel
	ProcedureID string `gorm:"size:36;uniqueIndex" json:"procedureId"`
	PatientID   string `gorm:"size:36;index" json:"patientId"`

	OverallRating int  `json:"overallRating"` // 1-5
	Recommend     bool `json:"recommend"`

	PositiveAspects map[string]int `gorm:"serializer:json" json:"positiveAspects,omitempty"`
	NegativeAspects map[string]int `gorm:"serializer:json" json:"negativeAspects,omitempty"`

	// Legacy scalar metrics carried for older clients
	PainLevel     int `json:"painLevel"`     // 1-10
	EnergyLevel   int `json:"energyLevel"`   // 1-10
	SleepQuality  int `json:"sleepQuality"`  // 1-5
	AppetiteLevel int `json:"appetiteLevel"` // 1-5

	Symptoms    []string `gorm:"serializer:json" json:"symptoms,omitempty"`
	SideEffects []string `gorm:"serializer:json" json:"sideEffects,omitempty"`
	Comments    string   `gorm:"type:text" json:"comments,omitempty"`
}
