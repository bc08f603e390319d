package models

import "time"

// RepWeeklyData records a rep's weekly cadence: the Monday written
// update and the Tuesday team call.
type RepWeeklyData struct {
	ID                    string    `json:"id"`
	RepName               string    `json:"repName"`
	WeekStartDate         time.Time `json:"weekStartDate"`
	SubmittedMondayUpdate bool      `json:"submittedMondayUpdate"`
	AttendedTuesdayCall   bool      `json:"attendedTuesdayCall"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// RepWeeklyUpsert is the write request for a rep's week. The week is
// keyed by rep name plus week start date; repeated submissions for the
// same week overwrite the flags.
type RepWeeklyUpsert struct {
	RepName               string `json:"repName" validate:"required"`
	WeekStartDate         string `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	SubmittedMondayUpdate bool   `json:"submittedMondayUpdate"`
	AttendedTuesdayCall   bool   `json:"attendedTuesdayCall"`
}

// RepTrackingFilters narrows a rep tracking listing.
type RepTrackingFilters struct {
	RepName string `json:"repName,omitempty"`
}
