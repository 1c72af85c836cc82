package domain

// AnalysisRequest is one query line for the KataGo analysis engine.
type AnalysisRequest struct {
	ID                      string      `json:"id"`
	Moves                   [][2]string `json:"moves"` // [["B","D4"], ["W","Q16"], ...]
	Rules                   string      `json:"rules"`
	Komi                    float64     `json:"komi"`
	BoardXSize              int         `json:"boardXSize"`
	BoardYSize              int         `json:"boardYSize"`
	AnalyzeTurns            []int       `json:"analyzeTurns,omitempty"`
	MaxVisits               int         `json:"maxVisits,omitempty"`
	ReportDuringSearchEvery float64     `json:"reportDuringSearchEvery,omitempty"`
}

// AnalysisTerminate cancels queued or running queries.
type AnalysisTerminate struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	TerminateID string `json:"terminateId,omitempty"`
	TurnNumbers []int  `json:"turnNumbers,omitempty"`
}

// AnalysisResponse is one line KataGo writes back; several arrive per
// query while isDuringSearch is true.
type AnalysisResponse struct {
	ID             string     `json:"id"`
	TurnNumber     int        `json:"turnNumber"`
	IsDuringSearch bool       `json:"isDuringSearch"`
	RootInfo       RootInfo   `json:"rootInfo"`
	MoveInfos      []MoveInfo `json:"moveInfos"`
	Error          string     `json:"error,omitempty"`
	Warning        string     `json:"warning,omitempty"`
}

type RootInfo struct {
	CurrentPlayer string  `json:"currentPlayer"` // "W" or "B"
	Winrate       float64 `json:"winrate"`
	ScoreLead     float64 `json:"scoreLead"`
	Visits        int     `json:"visits"`
}

type MoveInfo struct {
	Move      string   `json:"move"`
	Winrate   float64  `json:"winrate"`
	Visits    int      `json:"visits"`
	Prior     float64  `json:"prior"`
	Order     int      `json:"order"`
	ScoreLead float64  `json:"scoreLead"`
	PV        []string `json:"pv"`
}
