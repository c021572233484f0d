// Package client runs one player's terminal session: input, one match and
// its relay pipeline, and rendering.
package client

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	mathrand "math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/decred/base58"

	appconfig "github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/dispatch"
	"github.com/tomz197/furbo/internal/draw"
	"github.com/tomz197/furbo/internal/input"
	"github.com/tomz197/furbo/internal/leaderboard"
	"github.com/tomz197/furbo/internal/loop"
	"github.com/tomz197/furbo/internal/loop/config"
	"github.com/tomz197/furbo/internal/loop/server"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/session"
	"github.com/tomz197/furbo/internal/types"
	"github.com/tomz197/furbo/internal/world"
)

// panelWidth is the width of the side panel in columns.
const panelWidth = 28

// Client handles rendering and input for a single connection.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	state        *ClientState
	cfg          appconfig.Config
	player       string // base58 player key
	match        *loop.Match
	gate         *session.Gate
	registration *session.RelayRegistration
	logBox       *loop.LogBox
	logger       *log.Logger

	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	layout       draw.Layout
	offCol       int // Centering offset of the render area
	offRow       int
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
}

// ClientOptions configures the client.
type ClientOptions struct {
	Config       appconfig.Config
	Relay        relay.Client
	Identity     types.Identity // Player key and default handle; a random key is used when empty
	TermSizeFunc draw.TermSizeFunc
	Clock        clock.Clock
	LogWriter    io.Writer // Optional copy of the in-game log
}

// NewClient creates a new client connected to the given server.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) (*Client, error) {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	cfg := opts.Config

	player := opts.Identity.Player
	if player == "" {
		key, err := randomPlayerKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		player = key
	}

	logBox := loop.NewLogBox(config.LogBoxLines)
	var sink io.Writer = logBox
	if opts.LogWriter != nil {
		sink = io.MultiWriter(logBox, opts.LogWriter)
	}
	logger := log.NewWithOptions(sink, log.Options{Prefix: types.Identity{Player: player}.Short()})

	gate := session.NewGate(logger)
	disp := dispatch.New(cfg.Dispatch, gate, opts.Relay, clk, logger)
	registration := session.NewRelayRegistration(disp.SubmitFunc(), logger)
	gate.Attach(registration)

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	board := leaderboard.Board(nil)
	if gs != nil {
		board = gs.Board()
	}
	match := loop.NewMatch(loop.Options{
		Game:       cfg.Game,
		Dispatch:   cfg.Dispatch,
		World:      world.New(cfg.Game, mathrand.New(mathrand.NewSource(seed))),
		Dispatcher: disp,
		Gate:       gate,
		Board:      board,
		Clock:      clk,
		Logger:     logger,
	})

	c := &Client{
		server:       gs,
		state:        NewClientState(opts.Identity.Handle),
		cfg:          cfg,
		player:       player,
		match:        match,
		gate:         gate,
		registration: registration,
		logBox:       logBox,
		logger:       logger,
		canvas:       draw.NewScaledCanvas(1, 1, cfg.Game.Width, cfg.Game.Height),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
	}
	if gs != nil {
		c.handle = gs.RegisterClient(opts.Identity.Handle)
	}
	c.updateScreen()
	return c, nil
}

// randomPlayerKey returns a fresh base58 key read from src for players
// without one.
func randomPlayerKey(src io.Reader) (string, error) {
	key := make([]byte, types.PlayerKeyLength)
	if _, err := io.ReadFull(src, key); err != nil {
		return "", fmt.Errorf("generate player key: %w", err)
	}
	return base58.Encode(key), nil
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()

		switch c.state.GameState {
		case GameStateStart:
			c.updateStartState()
		case GameStatePlaying:
			c.updatePlayingState()
		case GameStateOver:
			c.updateOverState()
		case GameStateShutdown:
			c.updateShutdownState()
		}

		if err := c.drawFrame(); err != nil {
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	if c.server != nil && c.handle != nil {
		c.server.UnregisterClient(c.handle.ID)
	}
	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads input and tracks inactivity.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)
	in := c.state.Input

	if len(in.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Quit || (c.state.GameState != GameStateStart && hasQuitKey(in.Text)) {
		c.state.Running = false
	}
	if c.state.GameState == GameStateStart && in.Escape {
		c.state.Running = false
	}
}

func hasQuitKey(text []rune) bool {
	for _, r := range text {
		if r == 'q' || r == 'Q' {
			return true
		}
	}
	return false
}

// processServerEvents handles events from the hub.
func (c *Client) processServerEvents() {
	if c.handle == nil {
		return
	}
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				c.state.Running = false
				return
			}
			if event.Type == server.EventServerShutdown {
				c.state.GameState = GameStateShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	layout := draw.FitLayout(renderWidth, renderHeight, panelWidth, c.cfg.Game.Width, c.cfg.Game.Height)

	if layout != c.layout || offsetCol != c.offCol || offsetRow != c.offRow {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}
	c.layout = layout
	c.offCol, c.offRow = offsetCol, offsetRow

	c.canvas.Resize(layout.FieldCols, layout.FieldRows)
	c.canvas.SetOffset(offsetCol+layout.FieldCol, offsetRow+layout.FieldRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = termWidth
	renderHeight = termHeight
	if renderWidth > config.MaxTermWidth {
		renderWidth = config.MaxTermWidth
	}
	if renderHeight > config.MaxTermHeight {
		renderHeight = config.MaxTermHeight
	}
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// updateStartState edits the handle and registers on ENTER. The match
// starts once the relay confirms the registration.
func (c *Client) updateStartState() {
	in := c.state.Input
	if in.Backspace && len(c.state.Handle) > 0 {
		c.state.Handle = c.state.Handle[:len(c.state.Handle)-1]
	}
	for _, r := range in.Text {
		if len(c.state.Handle) < types.MaxHandleLength {
			c.state.Handle = append(c.state.Handle, r)
		}
	}

	if in.Enter && !c.registration.Pending() && !c.gate.CanDispatch() {
		id := types.Identity{Player: c.player, Handle: string(c.state.Handle)}
		if err := c.registration.Register(id); err != nil {
			c.logger.Error("cannot register", "err", err)
		}
	}

	c.match.Tick(c.state.delta)
	if c.gate.CanDispatch() {
		c.startMatch()
	}
}

// updatePlayingState feeds input into the match and advances it.
func (c *Client) updatePlayingState() {
	in := c.state.Input
	c.match.QueueInput(loop.Input{Direction: in.Direction, Fire: in.Fire})
	c.match.Tick(c.state.delta)
	if c.match.State().Phase == loop.PhaseOver {
		c.state.GameState = GameStateOver
	}
}

// updateOverState keeps applying relay outcomes and restarts on ENTER.
func (c *Client) updateOverState() {
	c.match.Tick(c.state.delta)
	if c.state.Input.Enter || c.state.Input.Fire {
		c.startMatch()
	}
}

// startMatch starts or restarts the match.
func (c *Client) startMatch() {
	c.inputStream.Reset()
	if err := c.match.Start(); err != nil {
		c.logger.Error("cannot start", "err", err)
		c.state.GameState = GameStateStart
		return
	}
	c.state.GameState = GameStatePlaying
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.match.Tick(c.state.delta)
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}

// inactivityLeft returns the time until an idle client is disconnected.
func inactivityLeft(lastInput time.Time) time.Duration {
	return time.Duration(config.InactivityDisconnectUser)*time.Second - time.Since(lastInput)
}
