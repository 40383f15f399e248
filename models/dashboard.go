package models

type DashboardStats struct {
	ProfilesTotal     int `json:"profiles_total"`
	SuspendedProfiles int `json:"suspended_profiles"`
	EventsTotal       int `json:"events_total"`
	ActiveEvents      int `json:"active_events"`
	TeamsTotal        int `json:"teams_total"`
	SubmissionsTotal  int `json:"submissions_total"`
	EvaluationsTotal  int `json:"evaluations_total"`
}
