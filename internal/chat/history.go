// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/dino/internal/activity"
	"github.com/tomtom215/dino/internal/config"
	"github.com/tomtom215/dino/internal/database"
	"github.com/tomtom215/dino/internal/logging"
	"github.com/tomtom215/dino/internal/models"
)

func (s *Service) historyLimit() int {
	if s.cfg.History.Limit > 0 {
		return s.cfg.History.Limit
	}
	return 100
}

// history returns the messages of roomID for userID using the configured
// strategy. The unread strategy falls back to top when nothing was read.
func (s *Service) history(ctx context.Context, userID, roomID string) ([]models.Message, error) {
	limit := s.historyLimit()
	if s.cfg.History.Strategy == config.HistoryUnread {
		last, err := s.lastRead(ctx, roomID, userID)
		if err != nil {
			return nil, err
		}
		if !last.IsZero() {
			return s.repo.GetHistorySince(ctx, roomID, last, limit)
		}
	}
	return s.repo.GetHistory(ctx, roomID, limit)
}

func (s *Service) lastRead(ctx context.Context, roomID, userID string) (time.Time, error) {
	if at, ok := s.cache.GetLastRead(ctx, roomID, userID); ok {
		return at, nil
	}
	at, err := s.repo.GetLastRead(ctx, roomID, userID)
	if err != nil {
		return at, err
	}
	if !at.IsZero() {
		_ = s.cache.SetLastRead(ctx, roomID, userID, at)
	}
	return at, nil
}

func (s *Service) validateHistory(req *Request) activity.Result {
	if res := s.requireRoom(req); !res.OK {
		return res
	}
	return s.checkRoomACL(req, req.Room, models.ActionHistory)
}

func (s *Service) onHistory(req *Request) activity.Result {
	msgs, err := s.history(req.Ctx, req.UserID(), req.Room.ID)
	if err != nil {
		return s.internalError(req.Ctx, "history", err)
	}
	return activity.Success(msgs)
}

// =============================================================================
// Acknowledgements
// =============================================================================

func (s *Service) validateAck(req *Request) activity.Result {
	if _, res := attachmentIDs(req.Activity); !res.OK {
		return res
	}
	if req.Activity.TargetID() == "" {
		return activity.Success(nil)
	}
	return s.requireRoom(req)
}

type ackEvent struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	RoomID    string `json:"room_id,omitempty"`
}

func (s *Service) onRead(req *Request) activity.Result {
	return s.ack(req, models.AckRead, activity.EventMessageRead)
}

func (s *Service) onReceived(req *Request) activity.Result {
	return s.ack(req, models.AckReceived, activity.EventMessageReceived)
}

// ack raises the ack state of the listed messages and tells each sender.
func (s *Service) ack(req *Request, state models.AckState, event string) activity.Result {
	ctx, userID := req.Ctx, req.UserID()
	ids, _ := attachmentIDs(req.Activity)
	if err := s.repo.SetAckState(ctx, userID, ids, state); err != nil {
		return s.internalError(ctx, "set ack state", err)
	}
	if state == models.AckRead && req.Room != nil {
		now := s.now().UTC()
		if err := s.repo.SetLastRead(ctx, req.Room.ID, userID, now); err != nil {
			return s.internalError(ctx, "set last read", err)
		}
		if err := s.cache.SetLastRead(ctx, req.Room.ID, userID, now); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Failed to mirror last read")
		}
	}
	for _, id := range ids {
		msg, err := s.repo.GetMessage(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			return s.internalError(ctx, "load message", err)
		}
		if msg.FromUserID == userID {
			continue
		}
		s.emitToUser(ctx, msg.FromUserID, event, ackEvent{MessageID: id, UserID: userID, RoomID: msg.TargetID})
	}
	return activity.Success(nil)
}

func (s *Service) validateMsgStatus(req *Request) activity.Result {
	if _, res := attachmentIDs(req.Activity); !res.OK {
		return res
	}
	if id := req.Activity.TargetID(); id != "" {
		if res := s.requireUser(req, id, activity.MissingTargetID); !res.OK {
			return res
		}
		req.TargetUser = id
	} else {
		req.TargetUser = req.UserID()
	}
	return activity.Success(nil)
}

// onMsgStatus reports the ack state of each message for the target user.
func (s *Service) onMsgStatus(req *Request) activity.Result {
	ids, _ := attachmentIDs(req.Activity)
	states, err := s.repo.GetAckStates(req.Ctx, req.TargetUser, ids)
	if err != nil {
		return s.internalError(req.Ctx, "ack states", err)
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = states[id].String()
	}
	return activity.Success(out)
}
