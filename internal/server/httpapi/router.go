// Package httpapi serves a read-only JSON view of the ledger plus health and
// metrics endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophmatch/internal/common"
	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/locations"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reader is the part of the matching core the HTTP API exposes.
type Reader interface {
	GetUser(ctx context.Context, account fhe.Address) (*models.UserRecord, error)
	GetApplication(ctx context.Context, id uint64) (*models.Application, error)
	GetApplicationResult(ctx context.Context, id uint64, account fhe.Address) (fhe.Handle, error)
	NextAppID(ctx context.Context) (uint64, error)
	IsAllowed(ctx context.Context, h fhe.Handle, account fhe.Address) (bool, error)
}

type api struct {
	reader  Reader
	catalog *locations.Catalog
	logger  logging.Logger
}

func NewRouter(reader Reader, catalog *locations.Catalog, logger logging.Logger) http.Handler {
	a := &api{reader: reader, catalog: catalog, logger: logger.With("module", "http_api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ok(w, r, map[string]string{"state": "serving"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/locations", a.locations)
		r.Get("/users/{account}", a.getUser)
		r.Get("/applications/next-id", a.nextAppID)
		r.Get("/applications/{id}", a.getApplication)
		r.Get("/applications/{id}/results/{account}", a.getResult)
		r.Get("/handles/{handle}/grants/{account}", a.isAllowed)
	})
	return r
}

func (a *api) error(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		fail(w, r, code, common.ErrorInternal.Error())
		return
	}
	fail(w, r, code, err.Error())
}

func accountParam(r *http.Request) (fhe.Address, error) {
	account, err := fhe.ParseAddress(chi.URLParam(r, "account"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return account, nil
}

func idParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad application id", common.ErrorValidation)
	}
	return id, nil
}

func (a *api) locations(w http.ResponseWriter, r *http.Request) {
	ok(w, r, a.catalog.Countries)
}

type userView struct {
	Account    fhe.Address `json:"account"`
	Username   string      `json:"username"`
	Registered bool        `json:"registered"`
	Country    fhe.Handle  `json:"country"`
	City       fhe.Handle  `json:"city"`
	Salary     fhe.Handle  `json:"salary"`
	BirthYear  fhe.Handle  `json:"birth_year"`
}

func (a *api) getUser(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil {
		a.error(w, r, err)
		return
	}

	u, err := a.reader.GetUser(r.Context(), account)
	if err != nil {
		a.error(w, r, err)
		return
	}
	ok(w, r, userView{
		Account:    u.Account,
		Username:   u.Username,
		Registered: u.Registered,
		Country:    u.Country,
		City:       u.City,
		Salary:     u.Salary,
		BirthYear:  u.BirthYear,
	})
}

type applicationView struct {
	ID       uint64             `json:"id"`
	Creator  fhe.Address        `json:"creator"`
	Active   bool               `json:"active"`
	Criteria models.RawCriteria `json:"criteria"`
}

func (a *api) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.error(w, r, err)
		return
	}

	app, err := a.reader.GetApplication(r.Context(), id)
	if err != nil {
		a.error(w, r, err)
		return
	}
	ok(w, r, applicationView{ID: app.ID, Creator: app.Creator, Active: app.Active, Criteria: app.Criteria.Raw()})
}

func (a *api) nextAppID(w http.ResponseWriter, r *http.Request) {
	id, err := a.reader.NextAppID(r.Context())
	if err != nil {
		a.error(w, r, err)
		return
	}
	ok(w, r, map[string]uint64{"id": id})
}

func (a *api) getResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		a.error(w, r, err)
		return
	}
	account, err := accountParam(r)
	if err != nil {
		a.error(w, r, err)
		return
	}

	h, err := a.reader.GetApplicationResult(r.Context(), id, account)
	if err != nil {
		a.error(w, r, err)
		return
	}
	ok(w, r, map[string]fhe.Handle{"handle": h})
}

func (a *api) isAllowed(w http.ResponseWriter, r *http.Request) {
	h, err := fhe.ParseHandle(chi.URLParam(r, "handle"))
	if err != nil {
		a.error(w, r, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	account, err := accountParam(r)
	if err != nil {
		a.error(w, r, err)
		return
	}

	allowed, err := a.reader.IsAllowed(r.Context(), h, account)
	if err != nil {
		a.error(w, r, err)
		return
	}
	ok(w, r, map[string]bool{"allowed": allowed})
}
