package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/logger"
	"github.com/palemoky/who-spies/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
)

// handleStream 升级为 WebSocket，按轮询间隔推送房间快照，内容变化时才发送
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := roomID(r)
	if _, err := s.repo.GetRoomView(r.Context(), id); err != nil {
		sendError(w, r, err)
		return
	}

	select {
	case <-s.done:
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.LogError("WebSocket 升级失败: %v", err)
		return
	}

	s.streams.Add(1)
	s.streamCount.Add(1)
	defer func() {
		s.streamCount.Add(-1)
		s.streams.Done()
	}()

	vs := &viewStream{
		server:   s,
		conn:     conn,
		roomID:   id,
		viewer:   r.URL.Query().Get("player"),
		interval: s.config.Server.PollIntervalDuration(),
	}
	logger.LogDebug("📡 %s 开始订阅房间 %s (IP: %s)", vs.viewer, id, ClientIP(r))
	vs.run()
	logger.LogDebug("📡 %s 停止订阅房间 %s", vs.viewer, id)
}

// viewStream 单个订阅连接
type viewStream struct {
	server   *Server
	conn     *websocket.Conn
	roomID   string
	viewer   string
	interval time.Duration
}

func (vs *viewStream) run() {
	defer func() { _ = vs.conn.Close() }()

	gone := make(chan struct{})
	go vs.readPump(gone)

	ticker := time.NewTicker(vs.interval)
	defer ticker.Stop()

	var last []byte
	for {
		msg, closed := vs.next()
		data, err := json.Marshal(msg)
		if err != nil {
			logger.LogError("序列化推送消息失败: %v", err)
			return
		}
		if !bytes.Equal(data, last) {
			if err := vs.write(websocket.TextMessage, data); err != nil {
				return
			}
			last = data
		}
		if closed {
			vs.closeWith(websocket.CloseNormalClosure, "room closed")
			return
		}

		select {
		case <-ticker.C:
		case <-gone:
			return
		case <-vs.server.done:
			vs.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// next 读取最新快照；房间被删除时返回 room_closed 并结束推送
func (vs *viewStream) next() (*protocol.Message, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), vs.server.config.Store.OpTimeoutDuration())
	defer cancel()

	v, err := vs.server.repo.GetRoomView(ctx, vs.roomID)
	switch {
	case err == nil:
		return protocol.MustNewMessage(protocol.MsgRoomState, v.ForPlayer(vs.viewer)), false
	case apperrors.IsNotFound(err):
		return protocol.MustNewMessage(protocol.MsgRoomClosed, protocol.RoomClosedPayload{RoomID: vs.roomID}), true
	default:
		logger.LogError("推送房间 %s 失败: %v", vs.roomID, err)
		return protocol.NewErrorMessage(apperrors.CodeOf(err)), false
	}
}

// readPump 丢弃客户端消息，连接断开时关闭 gone
func (vs *viewStream) readPump(gone chan<- struct{}) {
	defer close(gone)
	vs.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := vs.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (vs *viewStream) write(messageType int, data []byte) error {
	_ = vs.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return vs.conn.WriteMessage(messageType, data)
}

func (vs *viewStream) closeWith(code int, text string) {
	_ = vs.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}
