package protocol

import (
	"encoding/json"
	"fmt"
)

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 服务端 → 客户端 消息类型
const (
	MsgRoomState  MessageType = "room_state"  // 房间状态快照
	MsgRoomClosed MessageType = "room_closed" // 房间已解散
	MsgError      MessageType = "error"       // 错误
)

// ErrorPayload 错误消息
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RoomClosedPayload 房间解散通知
type RoomClosedPayload struct {
	RoomID string `json:"room_id"`
}

// NewMessage 创建消息
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化 %s 消息失败: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// MustNewMessage 创建消息，序列化失败时退化为错误消息
func MustNewMessage(msgType MessageType, payload any) *Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return NewErrorMessage(ErrCodeUnknown)
	}
	return msg
}

// NewErrorMessage 根据错误码创建错误消息
func NewErrorMessage(code int) *Message {
	return NewErrorMessageWithText(code, MessageFor(code))
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code int, text string) *Message {
	data, _ := json.Marshal(ErrorPayload{Code: code, Message: text})
	return &Message{Type: MsgError, Payload: data}
}

// Decode 解析消息负载
func (m *Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("消息 %s 没有负载", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}
