package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/recondesk/recon-backend/internal/api/dto"
	"github.com/recondesk/recon-backend/internal/application/service"
	"github.com/recondesk/recon-backend/internal/domain/matcher"
	"github.com/recondesk/recon-backend/internal/domain/transaction"
	"github.com/recondesk/recon-backend/internal/infrastructure/storage"
	"github.com/recondesk/recon-backend/internal/ingest"
)

const apiVersion = "1.0.0"

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Version: apiVersion})
}

func (s *Server) handleReconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	result := s.recon.Reconcile(toDomainList(req.Bank), toDomainList(req.Book), s.optionsFrom(req))

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		Matches:       dto.ToMatchResponses(result.Matches),
		UnmatchedBank: dto.ToTransactionResponses(result.UnmatchedBank),
		UnmatchedBook: dto.ToTransactionResponses(result.UnmatchedBook),
		Summary:       dto.ToSummaryResponse(result.Summary),
	})
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	session := s.recon.StartSession(toDomainList(req.Bank), toDomainList(req.Book), s.optionsFrom(req))
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, err := s.recon.Session(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("session"))
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (s *Server) handleManualMatch(c *gin.Context) {
	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	m, err := s.recon.ManualMatch(c.Param("id"), req.BankIDs, req.BookIDs, req.Confirmations)
	if err != nil {
		var gate *service.ConfirmationRequiredError
		switch {
		case errors.As(err, &gate):
			c.JSON(http.StatusConflict, dto.ConfirmationError{
				Code:       dto.ErrCodeConfirmationRequired,
				Message:    gate.Error(),
				Difference: gate.Difference,
				Given:      gate.Given,
				Required:   gate.Required,
			})
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, dto.NotFoundError("session"))
		default:
			c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToMatchResponse(*m))
}

func (s *Server) handleUnmatch(c *gin.Context) {
	var req dto.MatchActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	sessionID := c.Param("id")
	var err error
	if req.All {
		err = s.recon.UnmatchAll(sessionID)
	} else {
		err = s.recon.Unmatch(sessionID, req.MatchID)
	}
	s.respondWithSession(c, sessionID, err)
}

func (s *Server) handleApprove(c *gin.Context) {
	var req dto.MatchActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	sessionID := c.Param("id")
	var err error
	if req.All {
		err = s.recon.ApproveAll(sessionID, matcher.Kind(req.Kind))
	} else {
		err = s.recon.Approve(sessionID, req.MatchID)
	}
	s.respondWithSession(c, sessionID, err)
}

func (s *Server) handleReject(c *gin.Context) {
	var req dto.MatchActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	sessionID := c.Param("id")
	s.respondWithSession(c, sessionID, s.recon.Reject(sessionID, req.MatchID))
}

func (s *Server) handleSuggest(c *gin.Context) {
	var req dto.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	ranked, err := s.recon.Suggest(c.Param("id"), storage.Side(req.Side), req.SelectedIDs)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFoundError("session"))
			return
		}
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.SuggestResponse{Candidates: dto.ToTransactionResponses(ranked)})
}

func (s *Server) handleArchiveCheck(c *gin.Context) {
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	side := storage.Side(req.Side)
	if !side.Valid() {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("side must be bank or book"))
		return
	}

	unique, duplicates, warn := s.recon.CheckDuplicates(toDomainList(req.Items), side)
	resp := dto.ArchiveCheckResponse{
		Unique:     dto.ToTransactionResponses(unique),
		Duplicates: dto.ToTransactionResponses(duplicates),
	}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleArchiveSave(c *gin.Context) {
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	side := storage.Side(req.Side)
	if !side.Valid() {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("side must be bank or book"))
		return
	}

	added, warn := s.recon.SaveToArchive(toDomainList(req.Items), side)
	resp := dto.ArchiveSaveResponse{Added: added, Total: len(req.Items)}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleArchiveList(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewAPIError(dto.ErrCodeInternalError, "archive store not configured"))
		return
	}

	side := storage.Side(c.Query("side"))
	if !side.Valid() {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("side must be bank or book"))
		return
	}

	records, err := s.repo.Enumerate(side)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	resp := dto.ArchiveListResponse{
		Records: make([]dto.ArchiveRecordResponse, 0, len(records)),
		Count:   len(records),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, dto.ToArchiveRecordResponse(rec))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewAPIError(dto.ErrCodeInternalError, "archive store not configured"))
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	runs, err := s.repo.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	resp := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, dto.RunResponse{
			ID:            run.ID,
			StartedAt:     run.StartedAt,
			ToleranceDays: run.ToleranceDays,
			RequireRef:    run.RequireRef,
			BankCount:     run.BankCount,
			BookCount:     run.BookCount,
			MatchCount:    run.MatchCount,
			UnmatchedBank: run.UnmatchedBank,
			UnmatchedBook: run.UnmatchedBook,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// respondWithSession maps a service error and, on success, returns the
// refreshed session state so clients need no follow-up fetch.
func (s *Server) respondWithSession(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("session"))
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError("match"))
	case err != nil:
		c.JSON(http.StatusBadRequest, dto.BadRequestError(err.Error()))
	default:
		session, getErr := s.recon.Session(sessionID)
		if getErr != nil {
			c.JSON(http.StatusNotFound, dto.NotFoundError("session"))
			return
		}
		c.JSON(http.StatusOK, toSessionResponse(session))
	}
}

// optionsFrom applies the request parameters over the configured defaults.
func (s *Server) optionsFrom(req dto.ReconcileRequest) matcher.Options {
	opts := s.recon.Defaults()
	if req.ToleranceDays != nil {
		opts.ToleranceDays = *req.ToleranceDays
	}
	if req.RequireRefMatch {
		opts.RequireRefMatch = true
	}
	return opts
}

func toSessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:            session.ID,
		CreatedAt:     session.CreatedAt,
		Matches:       dto.ToMatchResponses(session.Matches),
		UnmatchedBank: dto.ToTransactionResponses(session.UnmatchedBank),
		UnmatchedBook: dto.ToTransactionResponses(session.UnmatchedBook),
		Summary:       dto.ToSummaryResponse(session.Summary),
	}
}

// toDomain maps a submitted transaction into the canonical record. Dates go
// through the same parser as file imports so API and file clients agree on
// what counts as a valid date.
func toDomain(in dto.TransactionInput) transaction.Transaction {
	t := transaction.Transaction{
		ID:      in.ID,
		Amount:  math.Abs(in.Amount),
		Display: transaction.NewDisplay(in.Amount),
		Ref:     strings.TrimSpace(in.Ref),
		Desc:    strings.TrimSpace(in.Desc),
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if raw := strings.TrimSpace(in.Date); raw != "" {
		t.Date = ingest.ParseDate(raw)
	}
	return t
}

func toDomainList(items []dto.TransactionInput) []transaction.Transaction {
	out := make([]transaction.Transaction, 0, len(items))
	for _, in := range items {
		out = append(out, toDomain(in))
	}
	return out
}
