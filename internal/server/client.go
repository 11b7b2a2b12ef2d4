package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
	gmath "github.com/Faultbox/gridprobe/pkg/math"
)

// client is a middleman between one websocket connection and the lookup.
type client struct {
	srv  *Server
	conn *websocket.Conn
	log  *zap.Logger

	// Buffered channel of outbound messages.
	send chan []byte

	// Closed by the hub when the client must stop.
	quit chan struct{}

	// Closed by writePump when it exits.
	gone chan struct{}
}

// readPump reads events from the connection and answers them.
//
// There is at most one reader per connection; every read happens in this
// goroutine.
func (c *client) readPump() {
	defer func() {
		c.srv.hub.remove(c)
		c.conn.Close()
		c.log.Debug("client disconnected")
	}()

	pongWait := c.srv.cfg.PongWait
	c.conn.SetReadLimit(c.srv.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		reply := c.handle(data)
		msg, err := json.Marshal(reply)
		if err != nil {
			c.log.Error("encoding reply", zap.Error(err))
			continue
		}

		if !c.queue(msg) {
			return
		}
	}
}

// queue hands msg to the writer. It returns false once the writer is gone
// or the hub has told the client to stop.
func (c *client) queue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.quit:
		return false
	case <-c.gone:
		return false
	}
}

// handle decodes one inbound message and returns the event to send back.
func (c *client) handle(data []byte) Event {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{EventError, errorData("", fmt.Errorf("%w: %v", errBadRequest, err))}
	}

	switch event.Name {
	case EventPick:
		return c.pick(event.Data)
	case EventScene:
		return Event{EventScene, c.srv.sceneData()}
	default:
		return Event{EventError, errorData("", fmt.Errorf("%w: unknown event %q", errBadRequest, event.Name))}
	}
}

func (c *client) pick(data interface{}) Event {
	var req pickRequest
	if err := mapstructure.Decode(data, &req); err != nil {
		return Event{EventError, errorData("", fmt.Errorf("%w: %v", errBadRequest, err))}
	}
	if len(req.HitPnt) != 3 {
		return Event{EventError, errorData(req.ID, fmt.Errorf("%w: hitPnt needs 3 components, got %d", errBadRequest, len(req.HitPnt)))}
	}

	p := gmath.FromArray([3]float64{req.HitPnt[0], req.HitPnt[1], req.HitPnt[2]})
	lookup := c.srv.lookup

	readout, err := lookup.ResolveCell(p)
	if err != nil {
		c.log.Debug("pick rejected", zap.Error(err))
		return Event{EventError, errorData(req.ID, err)}
	}
	elevation, err := lookup.Interpolate(p)
	if err != nil {
		return Event{EventError, errorData(req.ID, err)}
	}

	c.log.Debug("pick resolved",
		zap.Float64("gridI", readout.GridI),
		zap.Float64("gridJ", readout.GridJ))

	return Event{EventReadout, ReadoutData{
		ID:           req.ID,
		Readout:      readout,
		Interpolated: gridlookup.RoundTwoDecimals(elevation),
	}}
}

// writePump writes queued replies and keeps the connection alive with pings.
//
// There is at most one writer per connection; every write happens in this
// goroutine.
func (c *client) writePump() {
	writeWait := c.srv.cfg.WriteWait
	ticker := time.NewTicker(c.srv.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.gone)
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
