package grpc

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/rpc"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type matchHandler struct{ s *GRPCServer }

var _ rpc.MatchServer = (*matchHandler)(nil)

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	} else {
		s.logger.Debug(ctx, op+" rejected", "error", err)
	}
	return st
}

func (s *GRPCServer) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

func (h *matchHandler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.Empty, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.check(req); err != nil {
		return nil, h.s.fail(ctx, "register", err)
	}

	if err := h.s.match.Register(ctx, caller, req.Username, req.Handles, req.Proof); err != nil {
		return nil, h.s.fail(ctx, "register", err)
	}
	return &rpc.Empty{}, nil
}

func (h *matchHandler) CreateApplication(ctx context.Context, req *rpc.CreateApplicationRequest) (*rpc.ApplicationIDResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.checkCriteria(req.Criteria); err != nil {
		return nil, h.s.fail(ctx, "create application", err)
	}

	id, err := h.s.match.CreateApplication(ctx, caller, toRawCriteria(req.Criteria).Criteria())
	if err != nil {
		return nil, h.s.fail(ctx, "create application", err)
	}
	return &rpc.ApplicationIDResponse{ID: id}, nil
}

func (h *matchHandler) GetApplication(ctx context.Context, req *rpc.ApplicationRequest) (*rpc.Application, error) {
	app, err := h.s.match.GetApplication(ctx, req.ID)
	if err != nil {
		return nil, h.s.fail(ctx, "get application", err)
	}
	return &rpc.Application{
		ID:       app.ID,
		Creator:  app.Creator,
		Active:   app.Active,
		Criteria: fromRawCriteria(app.Criteria.Raw()),
	}, nil
}

func (h *matchHandler) SubmitApplication(ctx context.Context, req *rpc.ApplicationRequest) (*rpc.HandleResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.s.match.SubmitApplication(ctx, caller, req.ID)
	if err != nil {
		return nil, h.s.fail(ctx, "submit application", err)
	}
	return &rpc.HandleResponse{Handle: result}, nil
}

func (h *matchHandler) CloseApplication(ctx context.Context, req *rpc.ApplicationRequest) (*rpc.Empty, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.s.match.CloseApplication(ctx, caller, req.ID); err != nil {
		return nil, h.s.fail(ctx, "close application", err)
	}
	return &rpc.Empty{}, nil
}

func (h *matchHandler) GetUser(ctx context.Context, req *rpc.UserRequest) (*rpc.User, error) {
	account, err := h.s.account(req.Account)
	if err != nil {
		return nil, h.s.fail(ctx, "get user", err)
	}

	u, err := h.s.match.GetUser(ctx, account)
	if err != nil {
		return nil, h.s.fail(ctx, "get user", err)
	}
	return &rpc.User{
		Account:    u.Account,
		Username:   u.Username,
		Country:    u.Country,
		City:       u.City,
		Salary:     u.Salary,
		BirthYear:  u.BirthYear,
		Registered: u.Registered,
	}, nil
}

func (h *matchHandler) GetApplicationResult(ctx context.Context, req *rpc.ApplicationResultRequest) (*rpc.HandleResponse, error) {
	account, err := h.s.account(req.Account)
	if err != nil {
		return nil, h.s.fail(ctx, "get application result", err)
	}

	result, err := h.s.match.GetApplicationResult(ctx, req.ID, account)
	if err != nil {
		return nil, h.s.fail(ctx, "get application result", err)
	}
	return &rpc.HandleResponse{Handle: result}, nil
}

func (h *matchHandler) NextAppID(ctx context.Context, _ *rpc.Empty) (*rpc.ApplicationIDResponse, error) {
	id, err := h.s.match.NextAppID(ctx)
	if err != nil {
		return nil, h.s.fail(ctx, "next app id", err)
	}
	return &rpc.ApplicationIDResponse{ID: id}, nil
}

func (h *matchHandler) IsAllowed(ctx context.Context, req *rpc.IsAllowedRequest) (*rpc.IsAllowedResponse, error) {
	account, err := h.s.account(req.Account)
	if err != nil {
		return nil, h.s.fail(ctx, "is allowed", err)
	}

	ok, err := h.s.match.IsAllowed(ctx, req.Handle, account)
	if err != nil {
		return nil, h.s.fail(ctx, "is allowed", err)
	}
	return &rpc.IsAllowedResponse{Allowed: ok}, nil
}

func (s *GRPCServer) account(a fhe.Address) (fhe.Address, error) {
	parsed, err := fhe.ParseAddress(a.String())
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return parsed, nil
}

// checkCriteria applies the checks the core leaves to its callers: ordered
// ranges and, when a catalog is configured, known locations.
func (s *GRPCServer) checkCriteria(c rpc.Criteria) error {
	if c.MinSalary != 0 && c.MaxSalary != 0 && c.MinSalary > c.MaxSalary {
		return fmt.Errorf("%w: min_salary %d exceeds max_salary %d", common.ErrorValidation, c.MinSalary, c.MaxSalary)
	}
	if c.MinBirthYear != 0 && c.MaxBirthYear != 0 && c.MinBirthYear > c.MaxBirthYear {
		return fmt.Errorf("%w: min_birth_year %d exceeds max_birth_year %d", common.ErrorValidation, c.MinBirthYear, c.MaxBirthYear)
	}
	if s.catalog != nil {
		if err := s.catalog.Validate(c.CountryID, c.CityID); err != nil {
			return fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
	}
	return nil
}

func toRawCriteria(c rpc.Criteria) models.RawCriteria {
	return models.RawCriteria{
		CountryID:    c.CountryID,
		CityID:       c.CityID,
		MinSalary:    c.MinSalary,
		MaxSalary:    c.MaxSalary,
		MinBirthYear: c.MinBirthYear,
		MaxBirthYear: c.MaxBirthYear,
	}
}

func fromRawCriteria(c models.RawCriteria) rpc.Criteria {
	return rpc.Criteria{
		CountryID:    c.CountryID,
		CityID:       c.CityID,
		MinSalary:    c.MinSalary,
		MaxSalary:    c.MaxSalary,
		MinBirthYear: c.MinBirthYear,
		MaxBirthYear: c.MaxBirthYear,
	}
}
