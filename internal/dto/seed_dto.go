package dto

// SeedResult counts the demo records written by a seed run.
type SeedResult struct {
	UserID        string `json:"userId"`
	Sessions      int    `json:"sessions"`
	Assignments   int    `json:"assignments"`
	Notifications int    `json:"notifications"`
	Metrics       int    `json:"metrics"`
}
