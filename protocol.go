package main

// Messages coming from clients. One envelope for every command; the
// Type field selects the handler and the remaining fields are
// validated there before any state is touched.
type ClientMessage struct {
	Type           string         `json:"type"`
	RoomCode       string         `json:"roomCode,omitempty"`       // display:join / host:authenticate / host:takeOver / player:join
	Password       string         `json:"password,omitempty"`       // host:authenticate / host:takeOver
	PlayerName     string         `json:"playerName,omitempty"`     // player:join
	PlayerID       string         `json:"playerId,omitempty"`       // partyGame:setTurn
	Team1Name      string         `json:"team1Name,omitempty"`      // startGame
	Team2Name      string         `json:"team2Name,omitempty"`      // startGame
	TotalRounds    int            `json:"totalRounds,omitempty"`    // startGame
	Question       *Question      `json:"question,omitempty"`       // newQuestion
	IncrementRound bool           `json:"incrementRound,omitempty"` // newQuestion
	QuestionIndex  *int           `json:"questionIndex,omitempty"`  // newQuestion (bank bookkeeping)
	Index          *int           `json:"index,omitempty"`          // revealAnswer
	Team           int            `json:"team,omitempty"`           // awardPoints / endRound
	Points         *int           `json:"points,omitempty"`         // awardPoints / endRound
	CorrectGuesses []CorrectGuess `json:"correctGuesses,omitempty"` // endRound
	PlayerAnswer   string         `json:"playerAnswer,omitempty"`   // checkAnswer / player:submitAnswer
	Seconds        int            `json:"seconds,omitempty"`        // timer:start / timer:reset / timer:update
	Screen         string         `json:"screen,omitempty"`         // navigate
}

// Unicast replies

type AuthResultMessage struct {
	Type        string     `json:"type"` // "host:authResult"
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
	CanTakeOver bool       `json:"canTakeOver,omitempty"`
	GameState   *GameState `json:"gameState,omitempty"`
}

type DisplayJoinedMessage struct {
	Type      string     `json:"type"` // "display:joined"
	RoomCode  string     `json:"roomCode"`
	GameState *GameState `json:"gameState"`
}

type PlayerJoinedMessage struct {
	Type       string `json:"type"` // "player:joined"
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Team       int    `json:"team"`
}

// NoticeMessage carries generic per-connection notifications:
// "host:disconnected", "player:error", "player:notYourTurn", "error".
type NoticeMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Room-wide events

// SimpleMessage covers events with no payload: "entryLog:cleared",
// "round:reset", "round:continue", "timer:paused", "timer:timesUp",
// "host:connected".
type SimpleMessage struct {
	Type string `json:"type"`
}

// GameStateMessage carries a full snapshot: "gameState:full",
// "game:started", "game:reset", "partyGame:started".
type GameStateMessage struct {
	Type      string     `json:"type"`
	GameState *GameState `json:"gameState"`
}

type QuestionLoadedMessage struct {
	Type         string    `json:"type"` // "question:loaded"
	Question     *Question `json:"question"`
	CurrentRound int       `json:"currentRound"`
	TotalRounds  int       `json:"totalRounds"`
}

type AnswerRevealedMessage struct {
	Type  string `json:"type"` // "answer:revealed"
	Index int    `json:"index"`
}

// AnswerResultMessage relays the raw judge verdict to the host only.
type AnswerResultMessage struct {
	Type          string `json:"type"` // "answer:result"
	Match         bool   `json:"match"`
	MatchedAnswer string `json:"matchedAnswer,omitempty"`
	Confidence    string `json:"confidence,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

type AnswerCorrectMessage struct {
	Type              string `json:"type"` // "answer:correct"
	Index             int    `json:"index"`
	AnswerText        string `json:"answerText"`
	Points            int    `json:"points"`
	RoundPointsEarned int    `json:"roundPointsEarned"`
}

type AnswerIncorrectMessage struct {
	Type    string `json:"type"` // "answer:incorrect"
	Strikes int    `json:"strikes"`
}

type StrikeUpdatedMessage struct {
	Type    string `json:"type"` // "strike:updated"
	Strikes int    `json:"strikes"`
}

type PointsUpdatedMessage struct {
	Type       string `json:"type"` // "points:updated"
	Team1Score int    `json:"team1Score"`
	Team2Score int    `json:"team2Score"`
}

type EntryLogUpdatedMessage struct {
	Type     string     `json:"type"` // "entryLog:updated"
	EntryLog []LogEntry `json:"entryLog"`
}

type RoundSummaryMessage struct {
	Type            string         `json:"type"` // "round:summary"
	RoundNumber     int            `json:"roundNumber"`
	WinningTeam     int            `json:"winningTeam"`
	WinningTeamName string         `json:"winningTeamName"`
	PointsAwarded   int            `json:"pointsAwarded"`
	CorrectGuesses  []CorrectGuess `json:"correctGuesses"`
	TotalAnswers    int            `json:"totalAnswers"`
	Strikes         int            `json:"strikes"`
	Team1Name       string         `json:"team1Name"`
	Team1Score      int            `json:"team1Score"`
	Team2Name       string         `json:"team2Name"`
	Team2Score      int            `json:"team2Score"`
	CurrentRound    int            `json:"currentRound"`
	TotalRounds     int            `json:"totalRounds"`
}

type GameEndedMessage struct {
	Type       string `json:"type"` // "game:ended"
	Team1Name  string `json:"team1Name"`
	Team1Score int    `json:"team1Score"`
	Team2Name  string `json:"team2Name"`
	Team2Score int    `json:"team2Score"`
}

type GameStateUpdateMessage struct {
	Type   string `json:"type"` // "gameState:update"
	Screen string `json:"screen"`
}

// TimerMessage covers "timer:started", "timer:reset", "timer:tick".
type TimerMessage struct {
	Type    string `json:"type"`
	Seconds int    `json:"seconds"`
}

// Party mode events

type PlayersUpdatedMessage struct {
	Type    string         `json:"type"` // "players:updated" / "teams:updated"
	Players []*PartyPlayer `json:"players"`
}

type BattleStartedMessage struct {
	Type          string       `json:"type"` // "battle:started"
	Team1Player   *PartyPlayer `json:"team1Player"`
	Team2Player   *PartyPlayer `json:"team2Player"`
	FaceOffActive bool         `json:"faceOffActive"`
}

type TurnChangedMessage struct {
	Type              string `json:"type"` // "turn:changed"
	CurrentTurnPlayer string `json:"currentTurnPlayer"`
	PlayerName        string `json:"playerName"`
	FaceOffActive     bool   `json:"faceOffActive"`
}

type PlayerAnswerResultMessage struct {
	Type          string `json:"type"` // "player:answerResult"
	Match         bool   `json:"match"`
	MatchedAnswer string `json:"matchedAnswer,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
