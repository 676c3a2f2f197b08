package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/store"
)

func (s *Server) handleListGenerations(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 200 {
		pageSize = 200
	}

	rows, total, err := s.db.ListGenerations(store.GenerationQuery{
		Query:      strings.TrimSpace(c.Query("q")),
		Persona:    strings.TrimSpace(c.Query("persona")),
		Platform:   strings.TrimSpace(c.Query("platform")),
		Refinement: strings.TrimSpace(c.Query("refinement")),
		Sort:       strings.TrimSpace(c.Query("sort")),
		Offset:     page * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]GenerationDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, GenerationFromModel(row))
	}
	c.JSON(http.StatusOK, GenerationsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetGeneration(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	generation, err := s.db.GetGeneration(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("generation %d not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, GenerationDetailFromModel(*generation))
}

func (s *Server) handleGenerationStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("generation websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("generation websocket closed")
			} else {
				logrus.WithError(err).Warn("generation websocket unexpected close")
			}
			break
		}
	}
}
