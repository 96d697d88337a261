package main

import (
	"slices"
	"sort"
	"strings"
	"time"
)

const (
	maxStrikes = 3

	minTotalRounds     = 1
	maxTotalRounds     = 50
	defaultTotalRounds = 7

	defaultTeam1Name = "TEAM 1"
	defaultTeam2Name = "TEAM 2"
)

// Screens form the room lifecycle: qr -> {tutorial|setup} -> game -> end.
const (
	screenQR       = "qr"
	screenTutorial = "tutorial"
	screenSetup    = "setup"
	screenGame     = "game"
	screenEnd      = "end"
)

type Answer struct {
	Text   string `json:"text"`
	Points int    `json:"points"`
}

type Question struct {
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
}

type LogEntry struct {
	Entry     string    `json:"entry"`
	IsCorrect bool      `json:"isCorrect"`
	Timestamp time.Time `json:"timestamp"`
}

type CorrectGuess struct {
	Answer string `json:"answer"`
	Points int    `json:"points"`
}

type TimerState struct {
	Running           bool `json:"running"`
	ConfiguredSeconds int  `json:"configuredSeconds"`
	CurrentSeconds    int  `json:"currentSeconds"`
}

// GameState is the authoritative per-room record. Handlers never poke
// fields directly; every transition is a method here so the invariants
// (strike clamp, reveal set membership, round bounds) stay in one place.
type GameState struct {
	Screen                  string         `json:"screen"`
	Team1Name               string         `json:"team1Name"`
	Team2Name               string         `json:"team2Name"`
	Team1Score              int            `json:"team1Score"`
	Team2Score              int            `json:"team2Score"`
	TotalRounds             int            `json:"totalRounds"`
	CurrentRound            int            `json:"currentRound"`
	CurrentQuestion         *Question      `json:"currentQuestion,omitempty"`
	RevealedAnswers         []int          `json:"revealedAnswers"`
	Strikes                 int            `json:"strikes"`
	Timer                   TimerState     `json:"timer"`
	EntryLog                []LogEntry     `json:"entryLog"`
	RoundPointsEarned       int            `json:"roundPointsEarned"`
	UsedQuestionIndices     []int          `json:"usedQuestionIndices"`
	CorrectGuessesThisRound []CorrectGuess `json:"correctGuessesThisRound"`
	LastWinningTeam         int            `json:"lastWinningTeam"`
	LastPointsAwarded       int            `json:"lastPointsAwarded"`
}

func newGameState() *GameState {
	return &GameState{
		Screen:                  screenQR,
		Team1Name:               defaultTeam1Name,
		Team2Name:               defaultTeam2Name,
		TotalRounds:             defaultTotalRounds,
		CurrentRound:            1,
		RevealedAnswers:         []int{},
		EntryLog:                []LogEntry{},
		UsedQuestionIndices:     []int{},
		CorrectGuessesThisRound: []CorrectGuess{},
	}
}

// snapshot returns a deep copy for outbound messages. Queued payloads
// are marshaled by each connection's write pump after the room
// goroutine has moved on, so they must not alias the live state.
func (gs *GameState) snapshot() *GameState {
	out := *gs
	out.RevealedAnswers = slices.Clone(gs.RevealedAnswers)
	out.EntryLog = slices.Clone(gs.EntryLog)
	out.UsedQuestionIndices = slices.Clone(gs.UsedQuestionIndices)
	out.CorrectGuessesThisRound = slices.Clone(gs.CorrectGuessesThisRound)

	if gs.CurrentQuestion != nil {
		question := *gs.CurrentQuestion
		question.Answers = slices.Clone(gs.CurrentQuestion.Answers)
		out.CurrentQuestion = &question
	}

	return &out
}

func (gs *GameState) startGame(team1Name, team2Name string, totalRounds int) {
	if team1Name == "" {
		team1Name = defaultTeam1Name
	}
	if team2Name == "" {
		team2Name = defaultTeam2Name
	}
	if totalRounds < minTotalRounds {
		totalRounds = minTotalRounds
	}
	if totalRounds > maxTotalRounds {
		totalRounds = maxTotalRounds
	}

	gs.Screen = screenGame
	gs.Team1Name = team1Name
	gs.Team2Name = team2Name
	gs.Team1Score = 0
	gs.Team2Score = 0
	gs.TotalRounds = totalRounds
	gs.CurrentRound = 1
	gs.UsedQuestionIndices = []int{}
	gs.LastWinningTeam = 0
	gs.LastPointsAwarded = 0
	gs.clearRoundState()
}

// loadQuestion replaces the current question and wipes all per-round
// state. Answers are ordered descending by points; indices must stay
// stable afterward since reveal events reference answers by index.
func (gs *GameState) loadQuestion(q *Question, incrementRound bool) {
	sort.SliceStable(q.Answers, func(i, j int) bool {
		return q.Answers[i].Points > q.Answers[j].Points
	})

	if incrementRound && gs.CurrentRound < gs.TotalRounds {
		gs.CurrentRound++
	}

	gs.CurrentQuestion = q
	gs.clearRoundState()
}

func (gs *GameState) clearRoundState() {
	gs.RevealedAnswers = []int{}
	gs.Strikes = 0
	gs.EntryLog = []LogEntry{}
	gs.RoundPointsEarned = 0
	gs.CorrectGuessesThisRound = []CorrectGuess{}
}

func (gs *GameState) isRevealed(index int) bool {
	for _, i := range gs.RevealedAnswers {
		if i == index {
			return true
		}
	}
	return false
}

// revealAnswer reports whether the index was newly revealed. Unknown
// indices and repeat reveals are no-ops.
func (gs *GameState) revealAnswer(index int) bool {
	if gs.CurrentQuestion == nil || index < 0 || index >= len(gs.CurrentQuestion.Answers) {
		return false
	}
	if gs.isRevealed(index) {
		return false
	}
	gs.RevealedAnswers = append(gs.RevealedAnswers, index)
	return true
}

func (gs *GameState) addStrike() int {
	if gs.Strikes < maxStrikes {
		gs.Strikes++
	}
	return gs.Strikes
}

func (gs *GameState) removeStrike() int {
	if gs.Strikes > 0 {
		gs.Strikes--
	}
	return gs.Strikes
}

func (gs *GameState) awardPoints(team, points int) {
	if points < 0 {
		return
	}
	switch team {
	case 1:
		gs.Team1Score += points
	case 2:
		gs.Team2Score += points
	default:
		return
	}
	gs.LastWinningTeam = team
	gs.LastPointsAwarded = points
}

// applyCorrect reveals the answer at index as the result of a correct
// guess, crediting its points to the running round total. Reports false
// on an already-revealed index so a repeat match never double-counts.
func (gs *GameState) applyCorrect(index int) (Answer, bool) {
	if gs.CurrentQuestion == nil || index < 0 || index >= len(gs.CurrentQuestion.Answers) {
		return Answer{}, false
	}

	answer := gs.CurrentQuestion.Answers[index]

	if !gs.revealAnswer(index) {
		return answer, false
	}

	gs.RoundPointsEarned += answer.Points
	gs.CorrectGuessesThisRound = append(gs.CorrectGuessesThisRound, CorrectGuess{
		Answer: answer.Text,
		Points: answer.Points,
	})

	return answer, true
}

// findAnswer locates a board answer by case-insensitive exact text.
func (gs *GameState) findAnswer(text string) (int, bool) {
	if gs.CurrentQuestion == nil {
		return 0, false
	}
	for i, a := range gs.CurrentQuestion.Answers {
		if strings.EqualFold(a.Text, text) {
			return i, true
		}
	}
	return 0, false
}

func (gs *GameState) appendLog(entry string, correct bool) {
	gs.EntryLog = append(gs.EntryLog, LogEntry{
		Entry:     entry,
		IsCorrect: correct,
		Timestamp: time.Now(),
	})
}

func (gs *GameState) clearLog() {
	gs.EntryLog = []LogEntry{}
}

func (gs *GameState) resetRound() {
	gs.clearRoundState()
}

func (gs *GameState) resetGame() {
	*gs = *newGameState()
	gs.Screen = screenSetup
}

func (gs *GameState) endGame() {
	gs.Screen = screenEnd
}

// navigate allows host-directed jumps between setup and game only.
func (gs *GameState) navigate(screen string) bool {
	if screen != screenSetup && screen != screenGame {
		return false
	}
	gs.Screen = screen
	return true
}

func (gs *GameState) teamName(team int) string {
	if team == 2 {
		return gs.Team2Name
	}
	return gs.Team1Name
}

// markQuestionUsed records a question-bank index, starting the set over
// once every question in a bank of the given size has been used.
func (gs *GameState) markQuestionUsed(index, bankSize int) {
	for _, i := range gs.UsedQuestionIndices {
		if i == index {
			return
		}
	}
	gs.UsedQuestionIndices = append(gs.UsedQuestionIndices, index)
	if bankSize > 0 && len(gs.UsedQuestionIndices) >= bankSize {
		gs.UsedQuestionIndices = []int{}
	}
}

// The timer is advisory display state relayed from the host's local
// clock, not a deadline the room enforces.
func (gs *GameState) timerStart(seconds int) {
	if seconds > 0 {
		gs.Timer.ConfiguredSeconds = seconds
		gs.Timer.CurrentSeconds = seconds
	}
	gs.Timer.Running = true
}

func (gs *GameState) timerPause() {
	gs.Timer.Running = false
}

func (gs *GameState) timerReset(seconds int) {
	if seconds > 0 {
		gs.Timer.ConfiguredSeconds = seconds
	}
	gs.Timer.Running = false
	gs.Timer.CurrentSeconds = gs.Timer.ConfiguredSeconds
}

func (gs *GameState) timerTick(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	gs.Timer.CurrentSeconds = seconds
}

func (gs *GameState) timerFinish() {
	gs.Timer.Running = false
	gs.Timer.CurrentSeconds = 0
}
