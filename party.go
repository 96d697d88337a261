package main

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// PartyPlayer is one participant in the party variant, where players
// answer directly from their own devices instead of through the host.
type PartyPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team int    `json:"team"`

	client *Client
}

// battleState tracks the current battle pair: one player per team,
// the face-off flag, and which player currently holds the turn.
type battleState struct {
	team1        *PartyPlayer
	team2        *PartyPlayer
	faceOff      bool
	turnPlayerID string

	next1 int
	next2 int
}

func (r *Room) teamMembersLocked(team int) []*PartyPlayer {
	members := make([]*PartyPlayer, 0, len(r.players))
	for _, p := range r.players {
		if p.Team == team {
			members = append(members, p)
		}
	}
	return members
}

func (r *Room) handlePlayerJoin(cfg *Config, c *Client, msg ClientMessage) {
	name := strings.TrimSpace(msg.PlayerName)
	if name == "" {
		r.unicastLocked(c, NoticeMessage{
			Type:    "player:error",
			Message: "Please enter your name",
		})
		return
	}

	if c.player != nil {
		r.unicastLocked(c, NoticeMessage{
			Type:    "player:error",
			Message: "You have already joined this room",
		})
		return
	}

	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			r.unicastLocked(c, NoticeMessage{
				Type:    "player:error",
				Message: "That name is already taken",
			})
			return
		}
	}

	// Auto-balance: new players fill the smaller team.
	team := 1
	if len(r.teamMembersLocked(2)) < len(r.teamMembersLocked(1)) {
		team = 2
	}

	player := &PartyPlayer{
		ID:     uuid.NewString(),
		Name:   name,
		Team:   team,
		client: c,
	}

	r.players = append(r.players, player)
	c.role = rolePlayer
	c.player = player

	logf(cfg, "GAME: Player %q joined room %s (team %d)", name, r.code, team)

	r.unicastLocked(c, PlayerJoinedMessage{
		Type:       "player:joined",
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Team:       player.Team,
	})
	r.broadcastLocked(PlayersUpdatedMessage{
		Type:    "players:updated",
		Players: slices.Clone(r.players),
	})
}

// detachPlayerLocked removes the roster entry without notifying the
// room; callers that need the roster broadcast use removePlayerLocked.
func (r *Room) detachPlayerLocked(c *Client) bool {
	player := c.player
	if player == nil {
		return false
	}

	// Queued players:updated payloads still reference the old backing
	// array, so removal builds a fresh slice instead of compacting.
	players := make([]*PartyPlayer, 0, len(r.players)-1)
	for _, p := range r.players {
		if p == player {
			continue
		}
		players = append(players, p)
	}
	r.players = players

	if r.battle.team1 == player {
		r.battle.team1 = nil
	}
	if r.battle.team2 == player {
		r.battle.team2 = nil
	}
	if r.battle.turnPlayerID == player.ID {
		r.battle.turnPlayerID = ""
	}

	c.player = nil
	return true
}

func (r *Room) removePlayerLocked(c *Client) {
	if !r.detachPlayerLocked(c) {
		return
	}

	r.broadcastLocked(PlayersUpdatedMessage{
		Type:    "players:updated",
		Players: slices.Clone(r.players),
	})
}

func (r *Room) handlePartyStart(cfg *Config, c *Client, msg ClientMessage) {
	if len(r.teamMembersLocked(1)) == 0 || len(r.teamMembersLocked(2)) == 0 {
		r.unicastLocked(c, NoticeMessage{
			Type:  "error",
			Error: "Both teams need at least one player",
		})
		return
	}

	r.partyMode = true
	r.state.startGame(msg.Team1Name, msg.Team2Name, msg.TotalRounds)

	logf(cfg, "GAME: Party game started in room %s with %d players", r.code, len(r.players))

	r.broadcastLocked(GameStateMessage{
		Type:      "partyGame:started",
		GameState: r.state.snapshot(),
	})
	r.broadcastLocked(PlayersUpdatedMessage{
		Type:    "teams:updated",
		Players: slices.Clone(r.players),
	})

	r.startBattleLocked(cfg)
}

func (r *Room) handleNextBattle(cfg *Config) {
	if !r.partyMode {
		return
	}
	r.startBattleLocked(cfg)
}

// startBattleLocked rotates each team's lineup forward one player and
// opens the battle with a face-off: both players may answer until one
// of them lands a correct answer and takes the turn.
func (r *Room) startBattleLocked(cfg *Config) {
	team1 := r.teamMembersLocked(1)
	team2 := r.teamMembersLocked(2)
	if len(team1) == 0 || len(team2) == 0 {
		return
	}

	r.battle.team1 = team1[r.battle.next1%len(team1)]
	r.battle.team2 = team2[r.battle.next2%len(team2)]
	r.battle.next1++
	r.battle.next2++
	r.battle.faceOff = true
	r.battle.turnPlayerID = ""

	logf(cfg, "GAME: Battle %q vs %q in room %s",
		r.battle.team1.Name, r.battle.team2.Name, r.code)

	r.broadcastLocked(BattleStartedMessage{
		Type:          "battle:started",
		Team1Player:   r.battle.team1,
		Team2Player:   r.battle.team2,
		FaceOffActive: true,
	})
}

func (r *Room) handleSetTurn(c *Client, msg ClientMessage) {
	if !r.partyMode {
		return
	}

	player := r.battleParticipantLocked(msg.PlayerID)
	if player == nil {
		r.unicastLocked(c, NoticeMessage{
			Type:  "error",
			Error: "That player is not in the current battle",
		})
		return
	}

	r.setTurnLocked(player)
}

func (r *Room) battleParticipantLocked(id string) *PartyPlayer {
	if r.battle.team1 != nil && r.battle.team1.ID == id {
		return r.battle.team1
	}
	if r.battle.team2 != nil && r.battle.team2.ID == id {
		return r.battle.team2
	}
	return nil
}

func (r *Room) setTurnLocked(player *PartyPlayer) {
	r.battle.faceOff = false
	r.battle.turnPlayerID = player.ID

	r.broadcastLocked(TurnChangedMessage{
		Type:              "turn:changed",
		CurrentTurnPlayer: player.ID,
		PlayerName:        player.Name,
		FaceOffActive:     false,
	})
}

func (r *Room) handlePlayerAnswer(cfg *Config, judge Judge, c *Client, msg ClientMessage) {
	if !r.partyMode || c.player == nil {
		r.unicastLocked(c, NoticeMessage{
			Type:    "player:error",
			Message: "The party game has not started",
		})
		return
	}

	player := c.player

	if r.battleParticipantLocked(player.ID) == nil {
		r.unicastLocked(c, NoticeMessage{
			Type:    "player:notYourTurn",
			Message: "You're not in the current battle",
		})
		return
	}

	if !r.battle.faceOff && r.battle.turnPlayerID != player.ID {
		r.unicastLocked(c, NoticeMessage{
			Type:    "player:notYourTurn",
			Message: "It's not your turn to answer yet",
		})
		return
	}

	r.startCheckLocked(cfg, judge, c, msg.PlayerAnswer, true)
}

// A correct answer during a face-off wins the turn for the submitter.
func (r *Room) partyAnswerCorrectLocked(out judgeOutcome) {
	if !r.partyMode || !out.fromPlayer {
		return
	}
	player := out.client.player
	if player == nil {
		return
	}

	if r.battle.faceOff {
		r.setTurnLocked(player)
	}
}

// An incorrect answer by the turn holder passes the turn to the other
// battle participant. Face-off misses pass nothing: the other player
// is still free to answer.
func (r *Room) partyAnswerIncorrectLocked(out judgeOutcome) {
	if !r.partyMode || !out.fromPlayer || r.battle.faceOff {
		return
	}
	player := out.client.player
	if player == nil || r.battle.turnPlayerID != player.ID {
		return
	}

	var other *PartyPlayer
	switch player {
	case r.battle.team1:
		other = r.battle.team2
	case r.battle.team2:
		other = r.battle.team1
	}
	if other == nil {
		return
	}

	r.setTurnLocked(other)
}
