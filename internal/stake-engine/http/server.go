package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusplay/stake-engine/internal/stake-engine/approval"
	"github.com/campusplay/stake-engine/internal/stake-engine/domain"
	"github.com/campusplay/stake-engine/internal/stake-engine/dto"
	"github.com/campusplay/stake-engine/internal/stake-engine/report"
	"github.com/campusplay/stake-engine/internal/stake-engine/settle"
)

// Interfaces dos comandos de entrada; implementadas pelos serviços do engine.
type Approvals interface {
	Submit(ctx context.Context, ambassadorID string, p approval.Proposal) (string, error)
	Decide(ctx context.Context, adminID, applicationID string, d approval.Decision) error
	OpenStaking(ctx context.Context, applicationID string) error
	Begin(ctx context.Context, applicationID string) error
	Cancel(ctx context.Context, applicationID string) error
	Get(ctx context.Context, applicationID string) (*domain.EventApplication, error)
}

type Stakes interface {
	Place(ctx context.Context, userID, eventID string, amountCents int64, tier int, teamChoice string) (*domain.StakeRecord, error)
	Cancel(ctx context.Context, userID, eventID string) (int64, error)
	Active(ctx context.Context, userID, eventID string) (*domain.StakeRecord, error)
}

type Matches interface {
	Record(ctx context.Context, eventID string, teamAScore, teamBScore int, recordedBy string) (*domain.MatchResult, error)
}

type Settlements interface {
	Settle(ctx context.Context, eventID string) (*settle.Result, error)
}

type Reports interface {
	RewardHistory(ctx context.Context, userID string) ([]report.RewardEntry, error)
	EventStatistics(ctx context.Context, eventID string) (*report.EventStats, error)
	LedgerHistory(ctx context.Context, userID string) ([]domain.LedgerEntry, error)
}

type Balances interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, role, walletAddress, displayName string) (string, error)
	Deposit(ctx context.Context, userID string, amountCents int64, externalRef string) (int64, error)
}

type FeeRules interface {
	CreateFeeRule(ctx context.Context, r *domain.FeeRule) (string, error)
	GetFeeRule(ctx context.Context, id string) (*domain.FeeRule, error)
}

// Server expõe a API de comandos e consultas do engine.
type Server struct {
	log      *zap.Logger
	approval Approvals
	stakes   Stakes
	matches  Matches
	settle   Settlements
	reports  Reports
	balances Balances
	feeRules FeeRules
}

func NewServer(log *zap.Logger, a Approvals, s Stakes, m Matches, se Settlements, r Reports, b Balances, fr FeeRules) *Server {
	return &Server{log: log, approval: a, stakes: s, matches: m, settle: se, reports: r, balances: b, feeRules: fr}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/applications", s.submitApplication)  // POST
	mux.HandleFunc("/applications/", s.applicationByPath) // GET {id} | POST {id}/{action}
	mux.HandleFunc("/stakes", s.placeStake)               // POST
	mux.HandleFunc("/stakes/cancel", s.cancelStake)       // POST
	mux.HandleFunc("/results", s.recordResult)            // POST
	mux.HandleFunc("/settlements", s.settleEvent)         // POST
	mux.HandleFunc("/fee-rules", s.createFeeRule)         // POST
	mux.HandleFunc("/users", s.createUser)                // POST
	mux.HandleFunc("/users/", s.userByPath)               // GET {id}/rewards|wallet|ledger|stake | POST {id}/deposit
	mux.HandleFunc("/events/", s.eventByPath)             // GET {id}/stats
	return mux
}

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}

	id, err := s.approval.Submit(r.Context(), req.AmbassadorID, approval.Proposal{
		TeamA:         domain.Team{Name: req.TeamA.Name, Roster: req.TeamA.Roster},
		TeamB:         domain.Team{Name: req.TeamB.Name, Roster: req.TeamB.Roster},
		Venue:         req.Venue,
		VenueCapacity: req.VenueCapacity,
		ScheduledAt:   req.ScheduledAt,
		Priority:      req.Priority,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.SubmitApplicationResponse{ApplicationID: id, Status: domain.StatusPending})
}

// applicationByPath trata /applications/{id} e /applications/{id}/{action}
func (s *Server) applicationByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/applications/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, domain.ErrValidation, "applicationId required")
		return
	}

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		app, err := s.approval.Get(r.Context(), id)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, app)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "decide":
		var req dto.DecideApplicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrValidation, "bad json")
			return
		}
		err := s.withRetry(r.Context(), func(ctx context.Context) error {
			return s.approval.Decide(ctx, req.AdminID, id, approval.Decision{
				Action:          req.Action,
				FeeRuleID:       req.FeeRuleID,
				PoolAmountCents: req.PoolAmountCents,
				SupportCoeffA:   req.SupportCoeffA,
				SupportCoeffB:   req.SupportCoeffB,
				Notes:           req.Notes,
			})
		})
		if err != nil {
			writeError(w, err, "")
			return
		}
		status := domain.StatusApproved
		if req.Action == "reject" {
			status = domain.StatusRejected
		}
		writeJSON(w, dto.DecideApplicationResponse{ApplicationID: id, Status: status})
	case "open-staking":
		if err := s.approval.OpenStaking(r.Context(), id); err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, map[string]string{"applicationId": id, "status": domain.StatusPreMatch})
	case "begin":
		if err := s.approval.Begin(r.Context(), id); err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, map[string]string{"applicationId": id, "status": domain.StatusActive})
	case "cancel":
		if err := s.approval.Cancel(r.Context(), id); err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, map[string]string{"applicationId": id, "status": domain.StatusCancelled})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) placeStake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}

	var rec *domain.StakeRecord
	err := s.withRetry(r.Context(), func(ctx context.Context) error {
		var perr error
		rec, perr = s.stakes.Place(ctx, req.UserID, req.EventID, req.AmountCents, req.Tier, req.TeamChoice)
		return perr
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.PlaceStakeResponse{
		StakeID:             rec.ID,
		Status:              rec.Status,
		Multiplier:          rec.Multiplier,
		ExpectedRewardCents: rec.ExpectedRewardCents,
	})
}

func (s *Server) cancelStake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CancelStakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}
	if req.UserID == "" || req.EventID == "" {
		writeError(w, domain.ErrValidation, "userId and eventId required")
		return
	}

	var refunded int64
	err := s.withRetry(r.Context(), func(ctx context.Context) error {
		var cerr error
		refunded, cerr = s.stakes.Cancel(ctx, req.UserID, req.EventID)
		return cerr
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.CancelStakeResponse{EventID: req.EventID, RefundedCents: refunded, Status: domain.StakeCancelled})
}

func (s *Server) recordResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.RecordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}

	var result *domain.MatchResult
	err := s.withRetry(r.Context(), func(ctx context.Context) error {
		var rerr error
		result, rerr = s.matches.Record(ctx, req.EventID, req.TeamAScore, req.TeamBScore, req.RecordedBy)
		return rerr
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.RecordResultResponse{
		EventID:     req.EventID,
		WinningTeam: result.WinningTeam,
		Status:      domain.StatusCompleted,
	})
}

func (s *Server) settleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}
	if req.EventID == "" {
		writeError(w, domain.ErrValidation, "eventId required")
		return
	}

	var res *settle.Result
	err := s.withRetry(r.Context(), func(ctx context.Context) error {
		var serr error
		res, serr = s.settle.Settle(ctx, req.EventID)
		return serr
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.SettleResponse{
		EventID:        res.EventID,
		Settled:        res.Settled,
		Skipped:        res.Skipped,
		Failed:         res.Failed,
		TotalPaidCents: res.TotalPaidCents,
	})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}
	switch req.Role {
	case domain.RoleAdmin, domain.RoleAmbassador, domain.RoleAthlete, domain.RoleAudience:
	default:
		writeError(w, domain.ErrValidation, "unknown role")
		return
	}

	id, err := s.balances.CreateUser(r.Context(), req.Role, req.WalletAddress, req.DisplayName)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.CreateUserResponse{UserID: id, Role: req.Role})
}

func (s *Server) createFeeRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateFeeRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}
	if req.Name == "" {
		writeError(w, domain.ErrValidation, "name required")
		return
	}
	if req.StakingFeePercent < 0 || req.DistributionFeePercent < 0 {
		writeError(w, domain.ErrValidation, "fees cannot be negative")
		return
	}
	for _, m := range req.TierMultipliers {
		if m <= 0 {
			writeError(w, domain.ErrValidation, "tier multipliers must be positive")
			return
		}
	}
	version := req.Version
	if version == 0 {
		version = 1
	}

	id, err := s.feeRules.CreateFeeRule(r.Context(), &domain.FeeRule{
		Name:                   req.Name,
		Version:                version,
		StakingFeePercent:      req.StakingFeePercent,
		DistributionFeePercent: req.DistributionFeePercent,
		TierMultipliers:        req.TierMultipliers,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.CreateFeeRuleResponse{FeeRuleID: id, Name: req.Name, Version: version})
}

// userByPath trata /users/{id}/rewards, /users/{id}/wallet, /users/{id}/ledger
// e /users/{id}/deposit
func (s *Server) userByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, domain.ErrValidation, "userId required")
		return
	}

	if sub == "deposit" {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.deposit(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch sub {
	case "stake":
		eventID := r.URL.Query().Get("eventId")
		if eventID == "" {
			writeError(w, domain.ErrValidation, "eventId query param required")
			return
		}
		rec, err := s.stakes.Active(r.Context(), id, eventID)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, rec)
	case "rewards":
		entries, err := s.reports.RewardHistory(r.Context(), id)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, entries)
	case "wallet":
		u, err := s.balances.GetUser(r.Context(), id)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, dto.WalletResponse{UserID: u.ID, BalanceCents: u.VirtualBalanceCent})
	case "ledger":
		entries, err := s.reports.LedgerHistory(r.Context(), id)
		if err != nil {
			writeError(w, err, "")
			return
		}
		writeJSON(w, entries)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request, userID string) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrValidation, "bad json")
		return
	}
	if req.AmountCents <= 0 {
		writeError(w, domain.ErrValidation, "amount must be positive")
		return
	}

	balance, err := s.balances.Deposit(r.Context(), userID, req.AmountCents, req.ExternalRef)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, dto.DepositResponse{UserID: userID, BalanceCents: balance})
}

// eventByPath trata /events/{id}/stats
func (s *Server) eventByPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || sub != "stats" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.reports.EventStatistics(r.Context(), id)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, stats)
}

// withRetry repete a operação uma vez, com backoff, em conflito transiente.
// Erros de regra de negócio nunca são repetidos.
func (s *Server) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		s.log.Warn("concurrency conflict, retrying once")
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = fn(ctx)
	}
	return err
}

// writeError mapeia erros de domínio para status HTTP com um kind estável.
func writeError(w http.ResponseWriter, err error, reason string) {
	status := http.StatusInternalServerError
	kind := "internal_error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInsufficientBalance):
		status, kind = http.StatusUnprocessableEntity, "insufficient_balance"
	case errors.Is(err, domain.ErrDuplicateStake):
		status, kind = http.StatusConflict, "duplicate_stake"
	case errors.Is(err, domain.ErrEventNotStakeable):
		status, kind = http.StatusConflict, "event_not_stakeable"
	case errors.Is(err, domain.ErrTooLateToCancel):
		status, kind = http.StatusConflict, "too_late_to_cancel"
	case errors.Is(err, domain.ErrAlreadyDecided):
		status, kind = http.StatusConflict, "already_decided"
	case errors.Is(err, domain.ErrDuplicateResult):
		status, kind = http.StatusConflict, "duplicate_result"
	case errors.Is(err, domain.ErrEventNotActive):
		status, kind = http.StatusConflict, "event_not_active"
	case errors.Is(err, domain.ErrEventNotCompleted):
		status, kind = http.StatusConflict, "event_not_completed"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrPoolNotFunded):
		status, kind = http.StatusConflict, "pool_not_funded"
	case errors.Is(err, domain.ErrPoolUnderfunded):
		status, kind = http.StatusInternalServerError, "pool_underfunded"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, kind = http.StatusServiceUnavailable, "concurrency_conflict"
	}

	if reason == "" && err != nil {
		reason = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: kind, Reason: reason})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
