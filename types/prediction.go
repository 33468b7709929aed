package types

import "time"

// Prediction types accepted by the scoring service.
const (
	PredictionScope1 = "scope1"
	PredictionScope2 = "scope2"
	PredictionScope3 = "scope3"
	PredictionTotal  = "total"
)

// ValidPredictionType reports whether t names a known prediction type.
func ValidPredictionType(t string) bool {
	switch t {
	case PredictionScope1, PredictionScope2, PredictionScope3, PredictionTotal:
		return true
	}
	return false
}

// Prediction is a stored result returned by the external scoring model.
type Prediction struct {
	ID int `json:"id" db:"id"`

	UserID    int  `json:"user_id" db:"user_id"`
	CompanyID *int `json:"company_id,omitempty" db:"company_id"`

	// InputData is the serialized input payload the model was scored on.
	InputData string `json:"input_data" db:"input_data"`

	// Result is the scalar prediction returned by the model.
	Result float64 `json:"prediction_result" db:"prediction_result"`

	// Confidence is the model's self-reported confidence, when provided.
	Confidence *float64 `json:"confidence_score,omitempty" db:"confidence_score"`

	ModelVersion string `json:"model_version" db:"model_version"`

	// Type is one of the Prediction* constants.
	Type string `json:"prediction_type" db:"prediction_type"`

	// PredictedAt is the time the prediction was produced.
	PredictedAt time.Time `json:"prediction_date" db:"prediction_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ModelMetadata describes a named, versioned scoring model. Reference
// data only.
type ModelMetadata struct {
	ID int `json:"id" db:"id"`

	ModelName    string  `json:"model_name" db:"model_name"`
	ModelVersion string  `json:"model_version" db:"model_version"`
	Description  string  `json:"description,omitempty" db:"description"`
	Accuracy     float64 `json:"accuracy" db:"accuracy"`

	TrainingDate *time.Time `json:"training_date,omitempty" db:"training_date"`

	// Parameters is an opaque JSON blob of training parameters.
	Parameters string `json:"parameters,omitempty" db:"parameters"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
