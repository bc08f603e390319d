package models

// DateRange bounds submissions by creation date, inclusive on both
// ends. Values are calendar dates in YYYY-MM-DD form; End covers the
// whole of its day.
type DateRange struct {
	Start string `json:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SubmissionFilters narrows a submission listing. Zero values mean
// "no filter" for that dimension.
type SubmissionFilters struct {
	Search        string     `json:"search,omitempty"`
	DateRange     *DateRange `json:"dateRange,omitempty"`
	InterestLevel []int      `json:"interestLevel,omitempty" validate:"omitempty,dive,min=0,max=5"`
	SignedUp      *bool      `json:"signedUp,omitempty"`
	PackageSeen   *bool      `json:"packageSeen,omitempty"`
	Username      string     `json:"username,omitempty"`
}

// Pagination is a zero-based page request.
type Pagination struct {
	PageIndex int `json:"pageIndex" validate:"min=0"`
	PageSize  int `json:"pageSize" validate:"min=1,max=100"`
}

// SortOption is a single-column sort request using logical (frontend)
// field names; the query compiler remaps them to backend columns.
type SortOption struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// DefaultPageSize matches the dashboard's table default.
const DefaultPageSize = 10
