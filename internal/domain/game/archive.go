package game

import "time"

// ArchivedBoard is the stored form of a deleted board.
type ArchivedBoard struct {
	Key         string    `json:"key" bson:"key"`
	BoardID     int       `json:"board_id" bson:"board_id"`
	PlayerBlack string    `json:"player_black" bson:"player_black"`
	PlayerWhite string    `json:"player_white" bson:"player_white"`
	Trial       bool      `json:"trial" bson:"trial"`
	MoveCount   int       `json:"move_count" bson:"move_count"`
	SGF         string    `json:"sgf" bson:"sgf"`
	Moves       []Entry   `json:"moves" bson:"moves"`
	ArchivedAt  time.Time `json:"archived_at" bson:"archived_at"`
}

// Archive snapshots h; sgf is its exported record.
func Archive(key string, h *History, sgf string, at time.Time) ArchivedBoard {
	return ArchivedBoard{
		Key:         key,
		BoardID:     h.ID,
		PlayerBlack: h.PlayerBlack,
		PlayerWhite: h.PlayerWhite,
		Trial:       h.Trial,
		MoveCount:   h.MoveCount,
		SGF:         sgf,
		Moves:       h.All(),
		ArchivedAt:  at,
	}
}
