package models

// CreateMeetingRequest is the JSON body of POST /api/meetings.
type CreateMeetingRequest struct {
	AttendeeType      string `json:"attendeeType" binding:"required"`
	AttendeeName      string `json:"attendeeName" binding:"required"`
	AttendeeEmail     string `json:"attendeeEmail" binding:"required"`
	AttendeePhone     string `json:"attendeePhone,omitempty"`
	PreferredDateTime string `json:"preferredDateTime" binding:"required"` // RFC3339
	Timezone          string `json:"timezone" binding:"required"`
	Duration          int    `json:"duration,omitempty"`
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
