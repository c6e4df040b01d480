package http

import (
	"errors"
	"net/http"
	"strconv"

	"voteaudit/internal/domain"
	cryptoinfra "voteaudit/internal/infra/crypto"
	"voteaudit/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Mode         string `json:"mode"`
	OrgKeyLoaded bool   `json:"org_key_loaded"`
}

type pollsResponse struct {
	Polls []usecase.PollView `json:"polls"`
}

type historyResponse struct {
	PollID  int                         `json:"poll_id"`
	Records []domain.VerificationRecord `json:"records"`
}

type historyCheckResponse struct {
	Valid   bool   `json:"valid"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

type verifyRequest struct {
	Poll            *domain.Poll `json:"poll"`
	PublicKeyBase64 string       `json:"public_key_base64,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	loaded := false
	if s.keys != nil {
		_, loaded = s.keys.Get()
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Mode: s.mode, OrgKeyLoaded: loaded})
}

func (s *Server) handleListPolls(c *gin.Context) {
	c.JSON(http.StatusOK, pollsResponse{Polls: s.views.List()})
}

func (s *Server) handleGetVerification(c *gin.Context) {
	pollID, ok := pollIDParam(c)
	if !ok {
		return
	}
	view, found := s.views.Get(pollID)
	if !found {
		writeError(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, view.Verification)
}

func (s *Server) handlePollHistory(c *gin.Context) {
	pollID, ok := pollIDParam(c)
	if !ok {
		return
	}
	records, err := s.history.ListByPoll(c.Request.Context(), pollID)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []domain.VerificationRecord{}
	}
	c.JSON(http.StatusOK, historyResponse{PollID: pollID, Records: records})
}

func (s *Server) handleVerifyHistory(c *gin.Context) {
	count, err := s.history.Verify(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, historyCheckResponse{Valid: true, Records: count})
	case errors.Is(err, domain.ErrHistoryBroken):
		c.JSON(http.StatusOK, historyCheckResponse{Valid: false, Records: count, Error: err.Error()})
	default:
		writeError(c, err)
	}
}

func (s *Server) handleVerifyPoll(c *gin.Context) {
	if s.verifier == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "VERIFIER_UNAVAILABLE", "verifier not configured")
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.Poll == nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_POLL", "poll is required")
		return
	}

	var orgKey []byte
	if req.PublicKeyBase64 != "" {
		key, err := cryptoinfra.DecodeOrgPublicKeyBase64(req.PublicKeyBase64)
		if err != nil {
			writeError(c, err)
			return
		}
		orgKey = key
	} else if s.keys != nil {
		if key, ok := s.keys.Get(); ok {
			orgKey = key
		}
	}
	if orgKey == nil {
		writeError(c, domain.ErrKeysNotLoaded)
		return
	}

	verification := s.verifier.VerifyPoll(c.Request.Context(), *req.Poll, orgKey)
	c.JSON(http.StatusOK, verification)
}

func pollIDParam(c *gin.Context) (int, bool) {
	pollID, err := strconv.Atoi(c.Param("poll_id"))
	if err != nil || pollID < 0 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_POLL_ID", "poll_id must be a non-negative integer")
		return 0, false
	}
	return pollID, true
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrKeysNotLoaded):
		status, code = http.StatusConflict, "KEYS_NOT_LOADED"
	case errors.Is(err, domain.ErrKeysNotVerified):
		status, code = http.StatusUnprocessableEntity, "KEYS_NOT_VERIFIED"
	case errors.Is(err, domain.ErrInvalidPublicKey):
		status, code = http.StatusBadRequest, "INVALID_PUBLIC_KEY"
	case errors.Is(err, domain.ErrHistoryUnavailable):
		status, code = http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
