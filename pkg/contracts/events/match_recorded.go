package events

import "time"

// Evento publicado pelo recorder após gravar o resultado de uma partida.
// O settlement-worker consome esse evento para disparar a liquidação.
type MatchRecorded struct {
	EventID     string    `json:"event_id"`
	TeamAScore  int       `json:"team_a_score"`
	TeamBScore  int       `json:"team_b_score"`
	WinningTeam string    `json:"winning_team"` // "A" | "B" | "DRAW"
	RecordedBy  string    `json:"recorded_by"`
	Ts          time.Time `json:"ts"`
}
