package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizmind/internal/model"
	"github.com/abhisek/quizmind/internal/quiz"
)

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.log.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) registerUser(c *gin.Context) {
	var req quiz.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "The request body must be a JSON object.")
		return
	}
	u, err := s.svc.RegisterUser(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) userAnalytics(c *gin.Context) {
	out, err := s.svc.UserAnalytics(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) userSummary(c *gin.Context) {
	out, err := s.svc.UserSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) startQuiz(c *gin.Context) {
	var req quiz.StartQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "The request body must be a JSON object.")
		return
	}
	out, err := s.svc.StartQuiz(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req quiz.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "The request body must be a JSON object.")
		return
	}
	req.SessionID = c.Param("id")
	out, err := s.svc.SubmitAnswer(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) completeQuiz(c *gin.Context) {
	out, err := s.svc.CompleteQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type quizView struct {
	Session   *model.QuizSession    `json:"session"`
	Questions []quiz.ClientQuestion `json:"questions"`
}

func (s *Server) getQuiz(c *gin.Context) {
	sess, questions, err := s.svc.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizView{Session: sess, Questions: questions})
}

func (s *Server) abandonQuiz(c *gin.Context) {
	out, err := s.svc.AbandonQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) leaderboard(c *gin.Context) {
	var req quiz.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "limit and offset must be integers.")
		return
	}
	page, err := s.svc.Leaderboard(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) standings(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer.")
			return
		}
		limit = n
	}
	out, err := s.svc.Standings(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"standings": out})
}

// stream pushes leaderboard updates to the client as server-sent events
// until it disconnects.
func (s *Server) stream(c *gin.Context) {
	if s.hub == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorEnvelope{Error: APIError{
			Code: "stream_unavailable", Message: "Live updates are not enabled.",
		}})
		return
	}
	client := s.hub.AddClient()
	defer s.hub.RemoveClient(client)
	s.hub.Serve(c.Writer, c.Request, client)
}
