package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// UserState mirrors the public JSON surface of core.ProgressionState.
type UserState struct {
	UserID        string    `json:"user_id"`
	TotalXP       int64     `json:"total_xp"`
	Level         int       `json:"level"`
	CurrentXP     int64     `json:"current_xp"`
	PrestigeLevel int       `json:"prestige_level"`
	Title         string    `json:"title"`
	DaysActive    int64     `json:"days_active"`
	Updated       time.Time `json:"updated"`
}

// ActionResult mirrors the JSON body returned by the actions endpoint.
type ActionResult struct {
	Entry struct {
		ID         string  `json:"id"`
		Amount     int64   `json:"amount"`
		Multiplier float64 `json:"multiplier"`
		Bonus      int64   `json:"bonus"`
	} `json:"entry"`
	State   UserState         `json:"state"`
	Unlocks []json.RawMessage `json:"unlocks"`
}

// AchievementProgress mirrors the per-achievement progress rows.
type AchievementProgress struct {
	AchievementID    string    `json:"achievement_id"`
	Current          float64   `json:"current"`
	Target           float64   `json:"target"`
	Unlocked         bool      `json:"unlocked"`
	UnlockedAt       time.Time `json:"unlocked_at,omitempty"`
	NotificationSent bool      `json:"notification_sent,omitempty"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
