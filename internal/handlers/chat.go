package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/chat"
	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/transport"
)

const (
	messageDateLayout = "Mon Jan 02 2006"
	messageTimeLayout = "15:04"
)

type ChatHandler struct {
	DB       *gorm.DB
	Hub      *chat.Hub
	Producer *events.Producer
}

func (h *ChatHandler) CreateRoom(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)

	targetID, err := uuid.Parse(c.Param("user"))
	if err != nil {
		return transport.FailStatus(c, http.StatusBadRequest, "invalid user id")
	}

	var target models.User
	err = h.DB.WithContext(ctx).Where("id = ?", targetID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return transport.Fail(c, auth.ErrUserNotFound)
		}
		return transport.Fail(c, err)
	}

	room := models.Chatroom{
		UserA:    identity.User.ID,
		UserB:    target.ID,
		Messages: []models.Message{},
	}
	if err := h.DB.WithContext(ctx).Create(&room).Error; err != nil {
		return transport.Fail(c, err)
	}

	return transport.OK(c, "chatroom created", room)
}

func (h *ChatHandler) Rooms(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)

	var rooms []models.Chatroom
	err := h.DB.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", identity.User.ID, identity.User.ID).
		Find(&rooms).Error
	if err != nil {
		return transport.Fail(c, err)
	}
	return transport.OK(c, "", rooms)
}

func (h *ChatHandler) Messages(c echo.Context) error {
	ctx := c.Request().Context()

	room, err := h.memberRoom(c)
	if err != nil {
		return transport.Fail(c, err)
	}

	var msgs []models.Message
	err = h.DB.WithContext(ctx).
		Where("chatroom_id = ?", room.ID).
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return transport.Fail(c, err)
	}
	return transport.OK(c, "", msgs)
}

func (h *ChatHandler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)

	room, err := h.memberRoom(c)
	if err != nil {
		return transport.Fail(c, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return transport.Fail(c, auth.ErrValidation)
	}

	// date and timestamp are server-stamped in the split format the
	// chat widget expects
	now := time.Now()
	msg := models.Message{
		ChatroomID: room.ID,
		SenderID:   identity.User.ID,
		Content:    req.Content,
		Date:       now.Format(messageDateLayout),
		Timestamp:  now.Format(messageTimeLayout),
	}
	if err := h.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return transport.Fail(c, err)
	}

	h.Hub.Broadcast(room.ID, msg)
	h.publish(ctx, identity.User.ID.String(), echo.Map{
		"type":     "message_sent",
		"roomId":   room.ID,
		"senderId": identity.User.ID,
	})

	return transport.OK(c, "", msg)
}

// Stream feeds room messages to the client as server-sent events until
// the client goes away.
func (h *ChatHandler) Stream(c echo.Context) error {
	room, err := h.memberRoom(c)
	if err != nil {
		return transport.Fail(c, err)
	}

	sub := h.Hub.Subscribe(room.ID)
	defer h.Hub.Unsubscribe(room.ID, sub)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, open := <-sub:
			if !open {
				return nil
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: receiveMessage\ndata: %s\n\n", data)
			w.Flush()
		}
	}
}

// memberRoom resolves the :id param and checks the authenticated user
// belongs to the room.
func (h *ChatHandler) memberRoom(c echo.Context) (*models.Chatroom, error) {
	identity := middleware.UserFrom(c)

	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, errBadRoom
	}

	var room models.Chatroom
	err = h.DB.WithContext(c.Request().Context()).
		Where("id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadRoom
		}
		return nil, err
	}
	if !room.Has(identity.User.ID) {
		return nil, errBadRoom
	}
	return &room, nil
}

var errBadRoom = fmt.Errorf("%w: chatroom", auth.ErrUserNotFound)

func (h *ChatHandler) publish(ctx context.Context, key string, event echo.Map) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(pubCtx, events.TopicChat, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
