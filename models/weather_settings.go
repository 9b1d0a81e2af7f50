package models

// WeatherSettings is per-user collaborator preference state. The pipeline
// never modifies it; it is exposed read/write to the command layer only.
type WeatherSettings struct {
	UserID string `db:"user_id"`
	Place  string `db:"place"`
}
