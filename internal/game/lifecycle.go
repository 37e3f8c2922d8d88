package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// =============================================================================
// JOIN & LOBBY
// =============================================================================

func (m *Match) join(in Intent) {
	if in.PlayerID != "" {
		if c := m.clients[in.PlayerID]; c != nil {
			m.bind(c, in.ConnID)
			m.reply(in.ConnID, &PlayerJoinedMessage{Header: Header{MsgPlayerExists}, ID: c.ID, Nickname: c.Nickname})
			return
		}
	}
	if c := m.clientByConn(in.ConnID); c != nil {
		m.reply(in.ConnID, &PlayerJoinedMessage{Header: Header{MsgPlayerExists}, ID: c.ID, Nickname: c.Nickname})
		return
	}

	if m.awaitingAcks || (m.status != StatusWaiting && m.status != StatusCountdown) {
		m.reply(in.ConnID, NewErrorMessage(ErrGameInProgress.Error()))
		return
	}
	if len(m.clientOrder) >= m.cfg.MaxPlayers {
		m.reply(in.ConnID, &ErrorMessage{Header: Header{MsgError}, Message: ErrGameFull.Error(), GameFull: true})
		return
	}

	nickname, err := m.validateNickname(in.Nickname)
	if err != nil {
		m.reply(in.ConnID, NewErrorMessage(err.Error()))
		return
	}

	c := &Client{
		ID:       uuid.New().String(),
		Nickname: nickname,
		ConnID:   in.ConnID,
		JoinedAt: m.now(),
	}
	m.clients[c.ID] = c
	m.clientOrder = append(m.clientOrder, c.ID)

	log.Printf("👤 %s joined the lobby (%d/%d)", nickname, len(m.clientOrder), m.cfg.MaxPlayers)
	m.reply(in.ConnID, &PlayerJoinedMessage{Header: Header{MsgPlayerJoined}, ID: c.ID, Nickname: nickname})
	m.emit(EventTypePlayerJoin, c.ID, PlayerJoinPayload{Nickname: nickname, Lobby: len(m.clientOrder)})
	m.metrics.LobbySize(len(m.clientOrder))
	m.broadcastLobby()

	switch {
	case m.status == StatusCountdown:
		m.admit(c)
	case len(m.clientOrder) >= m.cfg.MaxPlayers:
		m.startCountdown()
	case len(m.clientOrder) >= m.cfg.MinPlayers:
		m.armGrace()
	}
}

func (m *Match) validateNickname(raw string) (string, error) {
	nickname := strings.TrimSpace(raw)
	if nickname == "" {
		return "", ErrNicknameMissing
	}
	for _, id := range m.clientOrder {
		if strings.EqualFold(m.clients[id].Nickname, nickname) {
			return "", ErrNicknameTaken
		}
	}
	return nickname, nil
}

func (m *Match) admit(c *Client) {
	p, err := m.players.Admit(c.ID, c.Nickname, m.status)
	if err != nil {
		log.WithError(err).WithField("player", c.Nickname).Warn("⚠️ Admission refused")
		return
	}
	log.Debugf("🎯 %s admitted at slot %d", p.Nickname, p.Slot)
}

func (m *Match) pageReload(c *Client, connID, page string) {
	m.bind(c, connID)
	log.WithFields(log.Fields{"player": c.Nickname, "page": page}).Debug("🔄 Page reload")

	if m.awaitingAcks || m.status == StatusRunning || m.status == StatusEnded {
		m.reply(connID, &GameUpdateMessage{
			Header:      Header{MsgGameUpdate},
			GameState:   m.view(),
			Players:     m.players.List(),
			ChatHistory: m.chat.History(),
		})
		return
	}

	m.reply(connID, m.lobbyMessage())
	switch {
	case m.status == StatusCountdown:
		m.reply(connID, &ReadyTimerMessage{Header: Header{MsgReadyTimer}, Countdown: m.countdownLeft})
	case m.graceLeft > 0:
		m.reply(connID, &WaitingTimerMessage{Header: Header{MsgWaitingTimer}, TimeLeft: m.graceLeft})
	}
}

// view carries each bomb with the fuse it has left, not the fuse it was placed with
func (m *Match) view() GameView {
	now := m.now()
	bombs := make([]*Bomb, 0, len(m.bombs))
	for _, b := range m.bombs {
		c := *b
		c.FuseMs = b.FuseRemaining(now).Milliseconds()
		bombs = append(bombs, &c)
	}
	return GameView{
		Status:     m.status,
		Map:        m.gameMap,
		Bombs:      bombs,
		Explosions: m.explosions,
	}
}

func (m *Match) postChat(c *Client, text string) {
	msg, ok := m.chat.Post(c.ID, c.Nickname, text, m.now())
	if !ok {
		return
	}
	m.broadcast(&ChatMessage{Header: Header{MsgChat}, Nickname: msg.Nickname, Message: msg.Message})
}

// dropClient removes an identity for good, whether it left or timed out
func (m *Match) dropClient(c *Client, reason string) {
	if p := m.players.Get(c.ID); p != nil {
		if m.status == StatusRunning && m.players.Deactivate(c.ID) != nil {
			m.broadcast(&PlayerEventMessage{Header: Header{MsgDeactivatePlayer}, ID: p.ID, Nickname: p.Nickname})
		}
		m.players.Remove(c.ID)
		delete(m.acks, c.ID)
	}

	delete(m.clients, c.ID)
	for i, id := range m.clientOrder {
		if id == c.ID {
			m.clientOrder = append(m.clientOrder[:i], m.clientOrder[i+1:]...)
			break
		}
	}
	m.chat.Forget(c.ID)

	log.Printf("👋 %s left the lobby (%s)", c.Nickname, reason)
	m.emit(EventTypePlayerLeave, c.ID, PlayerLeavePayload{Nickname: c.Nickname, Reason: reason})
	m.metrics.LobbySize(len(m.clientOrder))
	m.broadcastLobby()

	switch m.status {
	case StatusWaiting:
		if len(m.clientOrder) < m.cfg.MinPlayers {
			m.cancelGrace()
		}
	case StatusCountdown:
		if len(m.clientOrder) < m.cfg.MinPlayers {
			m.cancelCountdown()
		} else if m.awaitingAcks && m.allAcked() {
			m.startMatch()
		}
	case StatusRunning:
		m.checkGameEnd()
	}
}

// =============================================================================
// GRACE WINDOW & COUNTDOWN
// =============================================================================

// armGrace (re)starts the waiting-room window that precedes the countdown
func (m *Match) armGrace() {
	if m.cfg.GraceSeconds <= 0 {
		m.startCountdown()
		return
	}
	m.graceGen++
	m.graceLeft = m.cfg.GraceSeconds
	m.broadcast(&WaitingTimerMessage{Header: Header{MsgWaitingTimer}, TimeLeft: m.graceLeft})
	m.timers.Schedule(time.Second, Timer{Kind: TimerGraceTick, Gen: m.graceGen})
}

func (m *Match) cancelGrace() {
	m.graceGen++
	m.graceLeft = 0
}

func (m *Match) onGraceTick(t Timer) {
	if m.status != StatusWaiting || t.Gen != m.graceGen {
		return
	}
	if len(m.clientOrder) < m.cfg.MinPlayers {
		m.cancelGrace()
		return
	}

	m.graceLeft--
	if m.graceLeft <= 0 {
		m.startCountdown()
		return
	}
	m.broadcast(&WaitingTimerMessage{Header: Header{MsgWaitingTimer}, TimeLeft: m.graceLeft})
	m.timers.Schedule(time.Second, Timer{Kind: TimerGraceTick, Gen: m.graceGen})
}

func (m *Match) startCountdown() {
	if m.status != StatusWaiting {
		return
	}
	m.cancelGrace()
	m.matchNum++
	m.setStatus(StatusCountdown)

	m.gameMap = GenerateMap(m.cfg.MapWidth, m.cfg.MapHeight, m.cfg.DestructibleDensity, m.rng)
	m.pool = NewPowerUpPool(m.cfg.Bomb)
	for _, id := range m.clientOrder {
		m.admit(m.clients[id])
	}

	log.Printf("⏳ Countdown started with %d players", m.players.Len())
	m.countdownLeft = m.cfg.CountdownSeconds
	m.broadcast(&ReadyTimerMessage{Header: Header{MsgReadyTimer}, Countdown: m.countdownLeft})
	if m.countdownLeft <= 0 {
		m.finishCountdown()
		return
	}
	m.timers.Schedule(time.Second, Timer{Kind: TimerCountdownTick, Gen: m.epoch})
}

func (m *Match) onCountdownTick(t Timer) {
	if m.status != StatusCountdown || t.Gen != m.epoch || m.awaitingAcks {
		return
	}
	m.countdownLeft--
	m.broadcast(&ReadyTimerMessage{Header: Header{MsgReadyTimer}, Countdown: m.countdownLeft})
	if m.countdownLeft <= 0 {
		m.finishCountdown()
		return
	}
	m.timers.Schedule(time.Second, Timer{Kind: TimerCountdownTick, Gen: m.epoch})
}

// cancelCountdown returns to waiting when the lobby fell below quorum
func (m *Match) cancelCountdown() {
	log.Printf("⏹️ Countdown cancelled, %d players left", len(m.clientOrder))
	m.clearMatch()
	m.setStatus(StatusWaiting)
	m.broadcast(&Header{MsgLobbyReset})
}

// finishCountdown begins the start handshake: clients switch to the game
// page and acknowledge with gameStart
func (m *Match) finishCountdown() {
	m.awaitingAcks = true
	m.acks = make(map[string]bool, m.players.Len())
	m.broadcast(&GameStateMessage{Header: Header{MsgGameState}, Status: m.status})

	if m.cfg.StartAckTimeout <= 0 {
		m.startMatch()
		return
	}
	m.timers.Schedule(m.cfg.StartAckTimeout, Timer{Kind: TimerStartAck, Gen: m.epoch})
}

func (m *Match) ackStart(c *Client, connID string) {
	if m.status == StatusRunning {
		// late page load of a running match
		m.reply(connID, m.startedMessage())
		return
	}
	if !m.awaitingAcks || m.players.Get(c.ID) == nil {
		return
	}
	m.acks[c.ID] = true
	if m.allAcked() {
		m.startMatch()
	}
}

func (m *Match) allAcked() bool {
	for _, p := range m.players.List() {
		if !m.acks[p.ID] {
			return false
		}
	}
	return true
}

func (m *Match) startedMessage() *GameStartedMessage {
	return &GameStartedMessage{
		Header:      Header{MsgGameStarted},
		Map:         m.gameMap,
		Players:     m.players.List(),
		ChatHistory: m.chat.History(),
	}
}

func (m *Match) startMatch() {
	if !m.awaitingAcks || m.status != StatusCountdown {
		return
	}
	m.awaitingAcks = false
	m.acks = nil

	names := make([]string, 0, m.players.Len())
	for _, p := range m.players.List() {
		if p.Alive {
			spawn := m.players.SpawnOf(p)
			p.Position = &spawn
			p.lastMoveAt = time.Time{}
			p.frozenUntil = time.Time{}
		}
		names = append(names, p.Nickname)
	}

	m.roster = names
	m.startedAt = m.now()
	m.setStatus(StatusRunning)
	log.Printf("🚀 Match #%d started with %d players", m.matchNum, len(names))
	m.broadcast(m.startedMessage())
	m.emit(EventTypeMatchStart, "", MatchStartPayload{Players: names, Width: m.gameMap.Width, Height: m.gameMap.Height})
	m.metrics.MatchStarted(len(names))

	m.checkGameEnd()
}

// =============================================================================
// END & RESET
// =============================================================================

// checkGameEnd ends a running match once at most one player is alive.
// The status guard makes gameEnded fire once per match.
func (m *Match) checkGameEnd() {
	if m.status != StatusRunning {
		return
	}
	alive := m.players.Alive()
	if len(alive) > 1 {
		return
	}

	m.setStatus(StatusEnded)

	msg := &GameEndedMessage{Header: Header{MsgGameEnded}}
	winnerName := ""
	if len(alive) == 1 {
		winnerName = alive[0].Nickname
		msg.Winner = &winnerName
		msg.WinnerID = alive[0].ID
	}
	m.broadcast(msg)

	m.leaderboard.RecordMatch(m.roster, winnerName)

	duration := m.now().Sub(m.startedAt)
	if winnerName != "" {
		log.Printf("🏆 Match #%d won by %s after %s", m.matchNum, winnerName, duration.Round(time.Second))
	} else {
		log.Printf("💀 Match #%d ended with no survivor", m.matchNum)
	}
	m.emit(EventTypeMatchEnd, msg.WinnerID, MatchEndPayload{Winner: winnerName, Duration: duration.Milliseconds()})
	m.metrics.MatchEnded(winnerName != "", duration)

	m.timers.Schedule(m.cfg.ResetDelay, Timer{Kind: TimerReset, Gen: m.epoch})
}

// reset returns the server to an empty waiting lobby
func (m *Match) reset() {
	m.broadcast(&Header{MsgGameReset})
	m.broadcast(&Header{MsgLobbyReset})

	m.clearMatch()
	m.clients = make(map[string]*Client)
	m.clientOrder = nil
	m.chat.Reset()
	m.setStatus(StatusWaiting)

	log.Printf("🔁 Match #%d reset", m.matchNum)
	m.emit(EventTypeReset, "", nil)
	m.metrics.LobbySize(0)
}

// clearMatch drops all per-match state. Bumping the epoch makes every
// pending match-scoped timer stale.
func (m *Match) clearMatch() {
	m.epoch++
	m.players.Clear()
	m.bombs = nil
	m.explosions = nil
	m.gameMap = nil
	m.pool = nil
	m.awaitingAcks = false
	m.acks = nil
	m.countdownLeft = 0
	m.roster = nil
	m.cancelGrace()
}
