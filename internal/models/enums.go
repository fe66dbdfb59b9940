package models

type ImpactStatus string

const (
	ImpactPending  ImpactStatus = "pending"
	ImpactVerified ImpactStatus = "verified"
	ImpactRejected ImpactStatus = "rejected"
)

type Authenticity string

const (
	AuthenticityReal    Authenticity = "real"
	AuthenticityAI      Authenticity = "ai_generated"
	AuthenticityUnknown Authenticity = "unknown"
)

type Relevance string

const (
	RelevanceHigh Relevance = "high"
	RelevanceLow  Relevance = "low"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionPending Decision = "pending"
)

type ImageLabel string

const (
	ImageLabelAI      ImageLabel = "ai"
	ImageLabelReal    ImageLabel = "real"
	ImageLabelUnknown ImageLabel = "unknown"
)

// IsValidImpactStatus checks if an impact status is valid
func IsValidImpactStatus(status ImpactStatus) bool {
	switch status {
	case ImpactPending, ImpactVerified, ImpactRejected:
		return true
	default:
		return false
	}
}
