package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/events"
	"github.com/skillswap/backend/internal/hash"
	"github.com/skillswap/backend/internal/logging"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/search"
	"github.com/skillswap/backend/internal/token"
	"github.com/skillswap/backend/internal/transport"
)

type UserHandler struct {
	DB       *gorm.DB
	Issuer   *token.Issuer
	Registry *token.Registry
	Producer *events.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

var printableASCII = regexp.MustCompile(`^[\x20-\x7E]+$`)

// SkillPayload accepts a skill as either a bare string ("golang") or
// an object ({"name":"golang","descriptions":"..."}).
type SkillPayload struct {
	Name         string `json:"name"`
	Descriptions string `json:"descriptions"`
}

func (s *SkillPayload) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Name)
	}
	type plain SkillPayload
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SkillPayload(p)
	return nil
}

type createUserRequest struct {
	Username       string         `json:"username"`
	Password       string         `json:"password"`
	Gender         string         `json:"gender"`
	Nickname       string         `json:"nickname"`
	Introduction   string         `json:"introduction"`
	LearningSkills []SkillPayload `json:"learningSkills"`
	TeachingSkills []SkillPayload `json:"teachingSkills"`
}

func (r createUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(4, 20), is.Alphanumeric),
		validation.Field(&r.Password, validation.Required, validation.Length(4, 20), validation.Match(printableASCII)),
		validation.Field(&r.Gender, validation.Required, validation.In("male", "female")),
		validation.Field(&r.Nickname, validation.Length(0, 20)),
	)
}

func (h *UserHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return transport.FailStatus(c, http.StatusBadRequest, "requestFormatError")
	}
	if err := req.Validate(); err != nil {
		return transport.Fail(c, err)
	}

	var existing models.User
	err := h.DB.WithContext(ctx).Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return transport.Fail(c, auth.ErrDuplicateUsername)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return transport.Fail(c, err)
	}

	pwHash, err := hash.Password(req.Password)
	if err != nil {
		return transport.Fail(c, err)
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
		Gender:       req.Gender,
		Nickname:     req.Nickname,
		Introduction: req.Introduction,
		Skills: append(
			skillRows(req.LearningSkills, models.SkillLearning),
			skillRows(req.TeachingSkills, models.SkillTeaching)...,
		),
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return transport.Fail(c, err)
	}

	h.publish(ctx, events.TopicUser, user.ID.String(), echo.Map{
		"type":     "user_registered",
		"userId":   user.ID,
		"username": user.Username,
	})
	h.index(ctx, models.ProfileOf(&user))

	return transport.OK(c, "account created", models.ProfileOf(&user))
}

// Login runs after the credential strategy; it only mints the token and
// registers it.
func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	user := c.Get(middleware.ContextUser).(*models.User)

	tokenStr, err := h.Issuer.Issue(user.ID)
	if err != nil {
		return transport.Fail(c, err)
	}
	if err := h.Registry.Append(ctx, user.ID, tokenStr); err != nil {
		return transport.Fail(c, err)
	}

	h.publish(ctx, events.TopicUser, user.ID.String(), echo.Map{
		"type":     "user_logged_in",
		"userId":   user.ID,
		"username": user.Username,
	})

	return transport.OK(c, "", echo.Map{
		"token":    tokenStr,
		"username": user.Username,
		"userId":   user.ID,
		"gender":   user.Gender,
	})
}

func (h *UserHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)

	if err := h.Registry.Revoke(ctx, identity.User.ID, identity.Token); err != nil {
		return transport.Fail(c, err)
	}

	h.publish(ctx, events.TopicUser, identity.User.ID.String(), echo.Map{
		"type":   "user_logged_out",
		"userId": identity.User.ID,
	})

	return transport.OK(c, "", nil)
}

// Refresh swaps the presented token for a fresh one in a single
// registry update, so the old token is dead as soon as the new one
// exists.
func (h *UserHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)

	tokenStr, err := h.Issuer.Issue(identity.User.ID)
	if err != nil {
		return transport.Fail(c, err)
	}
	if err := h.Registry.Replace(ctx, identity.User.ID, identity.Token, tokenStr); err != nil {
		return transport.Fail(c, err)
	}

	return transport.OK(c, "", echo.Map{"token": tokenStr})
}

func (h *UserHandler) Profile(c echo.Context) error {
	identity := middleware.UserFrom(c)
	return transport.OK(c, "", models.ProfileOf(identity.User))
}

type updateProfileRequest struct {
	Username       *string         `json:"username"`
	Nickname       *string         `json:"nickname"`
	Introduction   *string         `json:"introduction"`
	LearningSkills *[]SkillPayload `json:"learningSkills"`
	TeachingSkills *[]SkillPayload `json:"teachingSkills"`
}

func (r updateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(4, 20), is.Alphanumeric),
		validation.Field(&r.Nickname, validation.Length(0, 20)),
	)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	identity := middleware.UserFrom(c)
	user := identity.User

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return transport.FailStatus(c, http.StatusBadRequest, "requestFormatError")
	}
	if err := req.Validate(); err != nil {
		return transport.Fail(c, err)
	}

	if req.Username != nil && *req.Username != user.Username {
		var existing models.User
		err := h.DB.WithContext(ctx).Where("username = ?", *req.Username).First(&existing).Error
		if err == nil {
			return transport.Fail(c, auth.ErrDuplicateUsername)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return transport.Fail(c, err)
		}
		user.Username = *req.Username
	}
	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Introduction != nil {
		user.Introduction = *req.Introduction
	}

	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(map[string]any{
			"username":     user.Username,
			"nickname":     user.Nickname,
			"introduction": user.Introduction,
		}).Error; err != nil {
			return err
		}
		if req.LearningSkills != nil {
			if err := replaceSkills(tx, user, models.SkillLearning, *req.LearningSkills); err != nil {
				return err
			}
		}
		if req.TeachingSkills != nil {
			if err := replaceSkills(tx, user, models.SkillTeaching, *req.TeachingSkills); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return transport.Fail(c, err)
	}

	if err := h.DB.WithContext(ctx).Preload("Skills").First(user, "id = ?", user.ID).Error; err != nil {
		return transport.Fail(c, err)
	}

	h.index(ctx, models.ProfileOf(user))

	return transport.OK(c, "profile updated", models.ProfileOf(user))
}

func (h *UserHandler) Profiles(c echo.Context) error {
	ctx := c.Request().Context()

	var users []models.User
	if err := h.DB.WithContext(ctx).Preload("Skills").Find(&users).Error; err != nil {
		return transport.Fail(c, err)
	}

	profiles := make([]models.Profile, len(users))
	for i := range users {
		profiles[i] = models.ProfileOf(&users[i])
	}
	return transport.OK(c, "", profiles)
}

func (h *UserHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return transport.FailStatus(c, http.StatusBadRequest, "query error")
	}
	if h.ES == nil {
		return transport.FailStatus(c, http.StatusInternalServerError, "search unavailable")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := search.Paginate(page, size)

	total, profiles, err := search.Profiles(c.Request().Context(), h.ES, h.ESIndex, q, from, size)
	if err != nil {
		return transport.Fail(c, err)
	}
	return transport.OK(c, "", echo.Map{"total": total, "profiles": profiles})
}

func (h *UserHandler) publish(ctx context.Context, topic, key string, event echo.Map) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(pubCtx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}

func (h *UserHandler) index(ctx context.Context, p models.Profile) {
	if err := search.IndexProfile(ctx, h.ES, h.ESIndex, p); err != nil {
		logging.FromContext(ctx).Error("profile index error", "error", err)
	}
}

func skillRows(payloads []SkillPayload, kind string) []models.Skill {
	rows := make([]models.Skill, 0, len(payloads))
	for _, p := range payloads {
		if p.Name == "" {
			continue
		}
		rows = append(rows, models.Skill{Kind: kind, Name: p.Name, Descriptions: p.Descriptions})
	}
	return rows
}

func replaceSkills(tx *gorm.DB, user *models.User, kind string, payloads []SkillPayload) error {
	if err := tx.Where("user_id = ? AND kind = ?", user.ID, kind).
		Delete(&models.Skill{}).Error; err != nil {
		return err
	}
	rows := skillRows(payloads, kind)
	for i := range rows {
		rows[i].UserID = user.ID
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
