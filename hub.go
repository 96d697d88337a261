package main

import (
	"context"
	"slices"
)

type roomCommand struct {
	client *Client
	msg    ClientMessage
}

// judgeOutcome re-enters the room loop once the external judge call
// resolves, tagged with the question it was checked against so stale
// results can be discarded.
type judgeOutcome struct {
	client       *Client
	question     *Question
	playerAnswer string
	verdict      *Verdict
	err          error
	fromPlayer   bool
}

// run is the single writer for this room. Every command executes to
// completion before the next is taken, so a manual strike can never
// interleave with an in-flight answer check's own strike.
func (r *Room) run(cfg *Config, judge Judge, bank *QuestionBank) {
	for {
		select {
		case c := <-r.register:
			r.handleRegister(c)

		case c := <-r.unreg:
			r.handleUnregister(cfg, c)

		case cmd := <-r.commands:
			r.dispatch(cfg, judge, bank, cmd)

		case out := <-r.verdicts:
			r.applyVerdict(cfg, out)

		case <-r.quit:
			r.mu.Lock()
			for c := range r.clients {
				close(c.send)
				_ = c.conn.Close()
				delete(r.clients, c)
			}
			r.mu.Unlock()
			return
		}
	}
}

func (r *Room) handleRegister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c] = true
}

func (r *Room) handleUnregister(cfg *Config, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}

	// Bindings are checked by pointer, not role: a connection's role
	// field can have been rebound since, and a stale host or display
	// binding would pin the room and block later hosts.
	if r.host == c {
		r.host = nil
		logf(cfg, "GAME: Host left room %s", r.code)
		r.broadcastLocked(NoticeMessage{
			Type:   "host:disconnected",
			Reason: "Host disconnected",
		})
	}
	if r.display == c {
		r.display = nil
		logf(cfg, "GAME: Display left room %s", r.code)
		r.broadcastLocked(SimpleMessage{Type: "display:disconnected"})
	}
	r.removePlayerLocked(c)
	c.role = roleNone
}

func (r *Room) dispatch(cfg *Config, judge Judge, bank *QuestionBank, cmd roomCommand) {
	c := cmd.client
	msg := cmd.msg

	r.mu.Lock()
	defer r.mu.Unlock()

	switch msg.Type {
	case "display:join":
		r.handleDisplayJoin(cfg, c)
		return
	case "host:authenticate":
		r.handleHostAuth(cfg, c, msg, false)
		return
	case "host:takeOver":
		r.handleHostAuth(cfg, c, msg, true)
		return
	case "player:join":
		r.handlePlayerJoin(cfg, c, msg)
		return
	case "player:submitAnswer":
		r.handlePlayerAnswer(cfg, judge, c, msg)
		return
	case "requestState":
		// Resynchronization pull, open to any member.
		r.unicastLocked(c, GameStateMessage{
			Type:      "gameState:full",
			GameState: r.state.snapshot(),
		})
		return
	}

	// Everything below mutates state: silently dropped unless the
	// issuing connection is the bound host. This is the single
	// authorization rule.
	if c != r.host {
		return
	}

	switch msg.Type {
	case "startGame":
		r.state.startGame(msg.Team1Name, msg.Team2Name, msg.TotalRounds)
		logf(cfg, "GAME: Started in room %s (%s vs %s, %d rounds)",
			r.code, r.state.Team1Name, r.state.Team2Name, r.state.TotalRounds)
		r.broadcastLocked(GameStateMessage{
			Type:      "game:started",
			GameState: r.state.snapshot(),
		})

	case "newQuestion":
		if msg.Question == nil || msg.Question.Question == "" || len(msg.Question.Answers) == 0 {
			r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
			return
		}
		r.state.loadQuestion(msg.Question, msg.IncrementRound)
		if msg.QuestionIndex != nil {
			r.state.markQuestionUsed(*msg.QuestionIndex, bank.Len())
		}
		r.broadcastLocked(QuestionLoadedMessage{
			Type:         "question:loaded",
			Question:     r.state.snapshot().CurrentQuestion,
			CurrentRound: r.state.CurrentRound,
			TotalRounds:  r.state.TotalRounds,
		})

	case "revealAnswer":
		if msg.Index == nil {
			r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
			return
		}
		if r.state.revealAnswer(*msg.Index) {
			r.broadcastLocked(AnswerRevealedMessage{
				Type:  "answer:revealed",
				Index: *msg.Index,
			})
		}

	case "addStrike":
		r.broadcastLocked(StrikeUpdatedMessage{
			Type:    "strike:updated",
			Strikes: r.state.addStrike(),
		})

	case "removeStrike":
		r.broadcastLocked(StrikeUpdatedMessage{
			Type:    "strike:updated",
			Strikes: r.state.removeStrike(),
		})

	case "awardPoints":
		if msg.Points == nil || *msg.Points < 0 || (msg.Team != 1 && msg.Team != 2) {
			r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
			return
		}
		r.state.awardPoints(msg.Team, *msg.Points)
		r.broadcastLocked(PointsUpdatedMessage{
			Type:       "points:updated",
			Team1Score: r.state.Team1Score,
			Team2Score: r.state.Team2Score,
		})

	case "endRound":
		if msg.Points == nil || *msg.Points < 0 || (msg.Team != 1 && msg.Team != 2) {
			r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
			return
		}
		r.state.awardPoints(msg.Team, *msg.Points)
		r.broadcastLocked(PointsUpdatedMessage{
			Type:       "points:updated",
			Team1Score: r.state.Team1Score,
			Team2Score: r.state.Team2Score,
		})
		// The host's guess list wins when present; the server's own
		// tracking covers a host client that lost local state.
		guesses := msg.CorrectGuesses
		if guesses == nil {
			guesses = r.state.CorrectGuessesThisRound
		}
		r.broadcastLocked(r.roundSummaryLocked(msg.Team, *msg.Points, guesses))

	case "showRoundSummary":
		r.broadcastLocked(r.roundSummaryLocked(
			r.state.LastWinningTeam,
			r.state.LastPointsAwarded,
			r.state.CorrectGuessesThisRound,
		))

	case "continueFromSummary":
		if r.state.CurrentRound >= r.state.TotalRounds {
			r.state.endGame()
			r.broadcastLocked(r.gameEndedLocked())
			return
		}
		r.broadcastLocked(SimpleMessage{Type: "round:continue"})

	case "checkAnswer":
		r.startCheckLocked(cfg, judge, c, msg.PlayerAnswer, false)

	case "resetRound":
		r.state.resetRound()
		r.broadcastLocked(SimpleMessage{Type: "round:reset"})

	case "resetGame":
		r.state.resetGame()
		logf(cfg, "GAME: Reset in room %s", r.code)
		r.broadcastLocked(GameStateMessage{
			Type:      "game:reset",
			GameState: r.state.snapshot(),
		})

	case "endGame":
		r.state.endGame()
		r.broadcastLocked(r.gameEndedLocked())

	case "navigate":
		if !r.state.navigate(msg.Screen) {
			r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
			return
		}
		r.broadcastLocked(GameStateUpdateMessage{
			Type:   "gameState:update",
			Screen: r.state.Screen,
		})

	case "clearEntryLog":
		r.state.clearLog()
		r.broadcastLocked(SimpleMessage{Type: "entryLog:cleared"})

	case "timer:start":
		r.state.timerStart(msg.Seconds)
		r.broadcastLocked(TimerMessage{
			Type:    "timer:started",
			Seconds: r.state.Timer.CurrentSeconds,
		})

	case "timer:pause":
		r.state.timerPause()
		r.broadcastLocked(SimpleMessage{Type: "timer:paused"})

	case "timer:reset":
		r.state.timerReset(msg.Seconds)
		r.broadcastLocked(TimerMessage{
			Type:    "timer:reset",
			Seconds: r.state.Timer.CurrentSeconds,
		})

	case "timer:update":
		r.state.timerTick(msg.Seconds)
		r.broadcastLocked(TimerMessage{
			Type:    "timer:tick",
			Seconds: r.state.Timer.CurrentSeconds,
		})

	case "timer:finished":
		r.state.timerFinish()
		r.broadcastLocked(SimpleMessage{Type: "timer:timesUp"})

	case "partyGame:start":
		r.handlePartyStart(cfg, c, msg)

	case "partyGame:setTurn":
		r.handleSetTurn(c, msg)

	case "partyGame:nextBattle":
		r.handleNextBattle(cfg)

	default:
		// Unknown command types are dropped.
	}
}

func (r *Room) handleDisplayJoin(cfg *Config, c *Client) {
	// The bound host keeps its binding; accepting the join would
	// rebind the connection's role while r.host still points at it.
	if c == r.host {
		r.unicastLocked(c, NoticeMessage{Type: "error", Error: errValidation.Error()})
		return
	}

	if r.display != nil && r.display != c {
		// The previous display keeps receiving broadcasts but loses
		// the binding that pins the room past the retention window.
		r.display.role = roleNone
	}
	r.display = c
	c.role = roleDisplay

	logf(cfg, "GAME: Display joined room %s", r.code)

	r.unicastLocked(c, DisplayJoinedMessage{
		Type:      "display:joined",
		RoomCode:  r.code,
		GameState: r.state.snapshot(),
	})
}

func (r *Room) handleHostAuth(cfg *Config, c *Client, msg ClientMessage, takeOver bool) {
	if msg.Password != cfg.hostPassword {
		r.unicastLocked(c, AuthResultMessage{
			Type:    "host:authResult",
			Success: false,
			Error:   errInvalidCredentials.Error(),
		})
		return
	}

	if r.host != nil && r.host != c {
		if !takeOver {
			r.unicastLocked(c, AuthResultMessage{
				Type:        "host:authResult",
				Success:     false,
				Error:       errHostConflict.Error(),
				CanTakeOver: true,
			})
			return
		}

		prev := r.host
		r.unicastLocked(prev, NoticeMessage{
			Type:   "host:disconnected",
			Reason: "Another host took over",
		})
		prev.role = roleNone
		if _, ok := r.clients[prev]; ok {
			delete(r.clients, prev)
			close(prev.send)
		}
		logf(cfg, "GAME: Host takeover in room %s", r.code)
	}

	r.host = c
	c.role = roleHost

	r.unicastLocked(c, AuthResultMessage{
		Type:      "host:authResult",
		Success:   true,
		GameState: r.state.snapshot(),
	})
	r.broadcastLocked(SimpleMessage{Type: "host:connected"})

	logf(cfg, "GAME: Host authenticated for room %s", r.code)
}

// startCheckLocked sequences a free-text answer through the external
// judge. The call may take arbitrary time, so it runs outside the room
// loop and its result re-enters through the verdicts channel.
func (r *Room) startCheckLocked(cfg *Config, judge Judge, c *Client, playerAnswer string, fromPlayer bool) {
	if r.state.CurrentQuestion == nil || playerAnswer == "" {
		return
	}

	if r.pendingCheck {
		if fromPlayer {
			r.unicastLocked(c, NoticeMessage{
				Type:    "player:error",
				Message: "An answer is already being checked",
			})
		} else {
			r.unicastLocked(c, NoticeMessage{
				Type:  "answer:error",
				Error: "An answer is already being checked",
			})
		}
		return
	}

	r.pendingCheck = true

	question := r.state.CurrentQuestion
	board := make([]string, 0, len(question.Answers))
	for _, a := range question.Answers {
		board = append(board, a.Text)
	}

	logf(cfg, "JUDGE: Checking %q in room %s", playerAnswer, r.code)

	go func() {
		verdict, err := judge.Check(context.Background(), question.Question, board, playerAnswer)

		out := judgeOutcome{
			client:       c,
			question:     question,
			playerAnswer: playerAnswer,
			verdict:      verdict,
			err:          err,
			fromPlayer:   fromPlayer,
		}

		select {
		case r.verdicts <- out:
		case <-r.quit:
		}
	}()
}

func (r *Room) applyVerdict(cfg *Config, out judgeOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingCheck = false

	// The round moved on while the judge was thinking; the verdict no
	// longer describes the board.
	if r.state.CurrentQuestion != out.question {
		logf(cfg, "JUDGE: Discarding stale verdict for %q in room %s", out.playerAnswer, r.code)
		return
	}

	if out.err != nil {
		logf(cfg, "JUDGE: Error in room %s: %v", r.code, out.err)
		if out.fromPlayer {
			r.unicastLocked(out.client, NoticeMessage{
				Type:    "player:error",
				Message: errJudgeUnavailable.Error(),
			})
		} else {
			r.unicastLocked(out.client, NoticeMessage{
				Type:  "answer:error",
				Error: errJudgeUnavailable.Error(),
			})
		}
		return
	}

	verdict := out.verdict

	// The raw verdict goes only to the submitter: the host sees the
	// full confidence/reason record, a player a trimmed one.
	if out.fromPlayer {
		r.unicastLocked(out.client, PlayerAnswerResultMessage{
			Type:          "player:answerResult",
			Match:         verdict.Match,
			MatchedAnswer: verdict.MatchedAnswer,
			Reason:        verdict.Reason,
		})
	} else if out.client == r.host {
		r.unicastLocked(out.client, AnswerResultMessage{
			Type:          "answer:result",
			Match:         verdict.Match,
			MatchedAnswer: verdict.MatchedAnswer,
			Confidence:    verdict.Confidence,
			Reason:        verdict.Reason,
		})
	}

	index, found := 0, false
	if verdict.Match {
		// A claimed match that names no board answer is a no-match.
		index, found = r.state.findAnswer(verdict.MatchedAnswer)
	}

	if !found {
		strikes := r.state.addStrike()
		r.state.appendLog(out.playerAnswer, false)
		r.broadcastLocked(EntryLogUpdatedMessage{
			Type:     "entryLog:updated",
			EntryLog: slices.Clone(r.state.EntryLog),
		})
		r.broadcastLocked(AnswerIncorrectMessage{
			Type:    "answer:incorrect",
			Strikes: strikes,
		})
		r.partyAnswerIncorrectLocked(out)
		return
	}

	answer, newlyRevealed := r.state.applyCorrect(index)
	r.state.appendLog(out.playerAnswer, true)
	r.broadcastLocked(EntryLogUpdatedMessage{
		Type:     "entryLog:updated",
		EntryLog: slices.Clone(r.state.EntryLog),
	})

	// An already-revealed match is informational only: logged as
	// correct, but never re-revealed or double-counted.
	if newlyRevealed {
		r.broadcastLocked(AnswerCorrectMessage{
			Type:              "answer:correct",
			Index:             index,
			AnswerText:        answer.Text,
			Points:            answer.Points,
			RoundPointsEarned: r.state.RoundPointsEarned,
		})
	}

	r.partyAnswerCorrectLocked(out)
}

func (r *Room) roundSummaryLocked(team, points int, guesses []CorrectGuess) RoundSummaryMessage {
	totalAnswers := 0
	if r.state.CurrentQuestion != nil {
		totalAnswers = len(r.state.CurrentQuestion.Answers)
	}

	return RoundSummaryMessage{
		Type:            "round:summary",
		RoundNumber:     r.state.CurrentRound,
		WinningTeam:     team,
		WinningTeamName: r.state.teamName(team),
		PointsAwarded:   points,
		CorrectGuesses:  slices.Clone(guesses),
		TotalAnswers:    totalAnswers,
		Strikes:         r.state.Strikes,
		Team1Name:       r.state.Team1Name,
		Team1Score:      r.state.Team1Score,
		Team2Name:       r.state.Team2Name,
		Team2Score:      r.state.Team2Score,
		CurrentRound:    r.state.CurrentRound,
		TotalRounds:     r.state.TotalRounds,
	}
}

func (r *Room) gameEndedLocked() GameEndedMessage {
	return GameEndedMessage{
		Type:       "game:ended",
		Team1Name:  r.state.Team1Name,
		Team1Score: r.state.Team1Score,
		Team2Name:  r.state.Team2Name,
		Team2Score: r.state.Team2Score,
	}
}

// broadcastLocked fans a message out to every room member. A client
// whose send buffer is full is dropped rather than allowed to stall
// the room.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		select {
		case client.send <- msg:
		default:
			r.dropLocked(client)
		}
	}
}

func (r *Room) unicastLocked(c *Client, msg any) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		r.dropLocked(c)
	}
}

func (r *Room) dropLocked(c *Client) {
	delete(r.clients, c)
	close(c.send)

	if r.host == c {
		r.host = nil
	}
	if r.display == c {
		r.display = nil
	}
	// No roster broadcast here: dropLocked runs inside a broadcast.
	r.detachPlayerLocked(c)
	c.role = roleNone
}
