package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/palemoky/who-spies/internal/apperrors"
	"github.com/palemoky/who-spies/internal/game/room"
)

type playerRequest struct {
	Name string `json:"name" validate:"required,max=32"`
}

func (p *playerRequest) trim() { p.Name = strings.TrimSpace(p.Name) }

type voteRequest struct {
	Voter  string `json:"voter" validate:"required,max=32"`
	Target string `json:"target" validate:"required,max=32"`
}

func (v *voteRequest) trim() {
	v.Voter = strings.TrimSpace(v.Voter)
	v.Target = strings.TrimSpace(v.Target)
}

type guessRequest struct {
	Name     string `json:"name" validate:"required,max=32"`
	Location string `json:"location" validate:"required,max=64"`
}

func (g *guessRequest) trim() {
	g.Name = strings.TrimSpace(g.Name)
	g.Location = strings.TrimSpace(g.Location)
}

// createRoomResponse 创建房间的返回
type createRoomResponse struct {
	RoomID string     `json:"room_id"`
	View   *room.View `json:"view"`
}

func roomID(r *http.Request) string {
	return strings.ToUpper(mux.Vars(r)["id"])
}

// handleCreateRoom 创建房间，创建者成为房主
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	id, err := s.repo.CreateRoom(ctx)
	if err != nil {
		sendError(w, r, err)
		return
	}
	if err := s.repo.JoinRoom(ctx, id, req.Name, true); err != nil {
		sendError(w, r, err)
		return
	}
	v, err := s.repo.GetRoomView(ctx, id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendData(w, http.StatusCreated, createRoomResponse{RoomID: id, View: v.ForPlayer(req.Name)})
}

// handleListRooms 房间列表，?phase= 按阶段过滤
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.repo.ListRooms(r.Context())
	if err != nil {
		sendError(w, r, err)
		return
	}
	if phase := r.URL.Query().Get("phase"); phase != "" {
		rooms = lo.Filter(rooms, func(sum room.Summary, _ int) bool { return string(sum.Phase) == phase })
	}
	sendData(w, http.StatusOK, rooms)
}

// handleGetRoom 房间快照，?player= 指定视角
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	v, err := s.repo.GetRoomView(r.Context(), roomID(r))
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, v.ForPlayer(r.URL.Query().Get("player")))
}

// handleJoin 加入房间：昵称不能重复，游戏开始后不能加入
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.JoinAsNew(r.Context(), id, req.Name)
	})
}

// handleLeave 离开房间，最后一人离开后房间删除，返回的 data 为 null
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	if err := s.repo.LeaveRoom(r.Context(), id, req.Name); err != nil {
		sendError(w, r, err)
		return
	}
	v, err := s.repo.GetRoomView(r.Context(), id)
	if apperrors.IsNotFound(err) {
		sendData(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, v.ForPlayer(req.Name))
}

// handleReady 切换准备状态
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.ToggleReady(r.Context(), id, req.Name)
	})
}

// handleStart 房主开局，需要人数足够且全员准备
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.StartAsHost(r.Context(), id, req.Name)
	})
}

// handleStartVoting 任意玩家发起投票
func (s *Server) handleStartVoting(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.StartVotingAs(r.Context(), id, req.Name)
	})
}

// handleVote 投票
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Voter, func() error {
		return s.repo.CastVote(r.Context(), id, req.Voter, req.Target)
	})
}

// handleGuess 卧底猜测地点
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.SubmitLocationGuess(r.Context(), id, req.Name, req.Location)
	})
}

// handleReset 房主重开
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id := roomID(r)
	s.mutate(w, r, id, req.Name, func() error {
		return s.repo.ResetAsHost(r.Context(), id, req.Name)
	})
}

// mutate 执行操作，成功时返回 viewer 视角的新快照
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, id, viewer string, op func() error) {
	if err := op(); err != nil {
		sendError(w, r, err)
		return
	}
	v, err := s.repo.GetRoomView(r.Context(), id)
	if err != nil {
		sendError(w, r, err)
		return
	}
	sendData(w, http.StatusOK, v.ForPlayer(viewer))
}
