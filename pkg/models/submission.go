package models

import "time"

// LeadStatus is the rep-facing status of a submission.
type LeadStatus string

const (
	LeadStatusCanvas      LeadStatus = "canvas"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusProspect    LeadStatus = "prospect"
	LeadStatusOpportunity LeadStatus = "opportunity"
	LeadStatusSignedUp    LeadStatus = "signed_up"
)

// Unassigned is the sentinel owner/territory value for submissions
// without a rep or region.
const Unassigned = "Unassigned"

// Submission is a lead/deal record describing a prospective or
// converted account. It is the immutable input to the workflow and
// probability engines; all pipeline state is derived from it on demand.
type Submission struct {
	ID             string     `json:"id"`
	OwnerName      string     `json:"ownerName"`
	PhoneNumber    string     `json:"phoneNumber,omitempty"`
	PackageSeen    bool       `json:"packageSeen"`
	DecisionMakers string     `json:"decisionMakers,omitempty"`
	InterestLevel  int        `json:"interestLevel"`
	SignedUp       bool       `json:"signedUp"`
	LeadStatus     LeadStatus `json:"leadStatus,omitempty"`
	SpecificNeeds  string     `json:"specificNeeds,omitempty"`
	Description    string     `json:"description,omitempty"`
	Amount         float64    `json:"amount,omitempty"`
	Username       string     `json:"username"`
	Territory      string     `json:"territory"`
	Timestamp      time.Time  `json:"timestamp"`

	// OwnerID is the resolved internal identity of the owning rep.
	// It is a storage concern and never exposed to API consumers.
	OwnerID string `json:"-"`
}

// EffectiveLeadStatus returns the explicit lead status, falling back to
// signed_up for converted submissions that predate the status field.
func (s Submission) EffectiveLeadStatus() LeadStatus {
	if s.LeadStatus != "" {
		return s.LeadStatus
	}
	if s.SignedUp {
		return LeadStatusSignedUp
	}
	return ""
}

// AssignedRep returns the owning rep's username, or Unassigned.
func (s Submission) AssignedRep() string {
	if s.Username == "" {
		return Unassigned
	}
	return s.Username
}

// Region returns the submission's territory, or Unassigned.
func (s Submission) Region() string {
	if s.Territory == "" {
		return Unassigned
	}
	return s.Territory
}

// SubmissionCreate carries the fields a caller may set when creating a
// submission. ID and Timestamp are assigned by the service.
type SubmissionCreate struct {
	OwnerName      string     `json:"ownerName" validate:"required"`
	PhoneNumber    string     `json:"phoneNumber"`
	PackageSeen    bool       `json:"packageSeen"`
	DecisionMakers string     `json:"decisionMakers"`
	InterestLevel  int        `json:"interestLevel" validate:"min=0,max=5"`
	SignedUp       bool       `json:"signedUp"`
	LeadStatus     LeadStatus `json:"leadStatus" validate:"omitempty,oneof=canvas contacted prospect opportunity signed_up"`
	SpecificNeeds  string     `json:"specificNeeds"`
	Description    string     `json:"description"`
	Amount         float64    `json:"amount" validate:"min=0"`
	Username       string     `json:"username"`
	Territory      string     `json:"territory"`
}

// SubmissionUpdate carries a partial update; nil fields are untouched.
type SubmissionUpdate struct {
	OwnerName      *string     `json:"ownerName,omitempty"`
	PhoneNumber    *string     `json:"phoneNumber,omitempty"`
	PackageSeen    *bool       `json:"packageSeen,omitempty"`
	DecisionMakers *string     `json:"decisionMakers,omitempty"`
	InterestLevel  *int        `json:"interestLevel,omitempty" validate:"omitempty,min=0,max=5"`
	SignedUp       *bool       `json:"signedUp,omitempty"`
	LeadStatus     *LeadStatus `json:"leadStatus,omitempty" validate:"omitempty,oneof=canvas contacted prospect opportunity signed_up"`
	SpecificNeeds  *string     `json:"specificNeeds,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Amount         *float64    `json:"amount,omitempty" validate:"omitempty,min=0"`
	Username       *string     `json:"username,omitempty"`
	Territory      *string     `json:"territory,omitempty"`
}

// SubmissionListResponse is a paginated page of submissions.
type SubmissionListResponse struct {
	Data       []Submission `json:"data"`
	TotalCount int          `json:"totalCount"`
	PageCount  int          `json:"pageCount"`
}

// SubmissionStats aggregates the dashboard headline numbers.
type SubmissionStats struct {
	Total                 int            `json:"total"`
	SignedUp              int            `json:"signedUp"`
	AvgInterestLevel      float64        `json:"avgInterestLevel"`
	PackageSeenPercentage float64        `json:"packageSeenPercentage"`
	InterestedByMonth     []MonthlyCount `json:"interestedByMonth"`
}

// MonthlyCount is one month's bucket in a time series.
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}
