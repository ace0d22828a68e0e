package eligibility

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/fhe/simfhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contract = fhe.MustAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	user     = fhe.MustAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")

	engine = simfhe.New("eligibility")
)

type allowAll struct{}

func (allowAll) IsAllowed(context.Context, fhe.Handle, fhe.Address) (bool, error) { return true, nil }

type profile struct {
	country, city uint32
	salary        uint64
	birthYear     uint16
}

func register(t *testing.T, e *simfhe.Engine, p profile) *models.UserRecord {
	t.Helper()
	in, err := e.NewInput(contract, user).Add32(p.country).Add32(p.city).Add64(p.salary).Add16(p.birthYear).Encrypt(context.Background())
	require.NoError(t, err)
	return &models.UserRecord{
		Account:    user,
		Country:    in.Handles[0],
		City:       in.Handles[1],
		Salary:     in.Handles[2],
		BirthYear:  in.Handles[3],
		Registered: true,
	}
}

func evaluate(t *testing.T, p profile, raw models.RawCriteria) bool {
	t.Helper()
	e := engine
	u := register(t, e, p)

	h, err := Evaluate(context.Background(), e, u, raw.Criteria())
	require.NoError(t, err)
	assert.Equal(t, fhe.KindBool, h.Kind())

	ok, err := simfhe.NewGateway(e, allowAll{}).DecryptBool(context.Background(), h, user)
	require.NoError(t, err)
	return ok
}

var scenario = profile{country: 86, city: 1001, salary: 100000, birthYear: 1995}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		profile  profile
		criteria models.RawCriteria
		want     bool
	}{
		{name: "no constraints", profile: scenario, want: true},
		{name: "no constraints, zero attributes", profile: profile{}, want: true},
		{name: "country match", profile: scenario, criteria: models.RawCriteria{CountryID: 86}, want: true},
		{name: "country mismatch", profile: scenario, criteria: models.RawCriteria{CountryID: 1}, want: false},
		{name: "city mismatch", profile: scenario, criteria: models.RawCriteria{CityID: 1002}, want: false},
		{name: "salary below minimum", profile: profile{salary: 99999}, criteria: models.RawCriteria{MinSalary: 100000}, want: false},
		{name: "salary at minimum", profile: profile{salary: 100000}, criteria: models.RawCriteria{MinSalary: 100000}, want: true},
		{name: "salary at maximum", profile: profile{salary: 5000}, criteria: models.RawCriteria{MaxSalary: 5000}, want: true},
		{name: "salary above maximum", profile: profile{salary: 5001}, criteria: models.RawCriteria{MaxSalary: 5000}, want: false},
		{name: "birth year in range", profile: scenario, criteria: models.RawCriteria{CountryID: 86, MinBirthYear: 1980, MaxBirthYear: 2000}, want: true},
		{name: "birth year below range", profile: scenario, criteria: models.RawCriteria{CountryID: 86, MinBirthYear: 1996, MaxBirthYear: 2000}, want: false},
		{name: "inverted range", profile: scenario, criteria: models.RawCriteria{MinBirthYear: 2000, MaxBirthYear: 1980}, want: false},
		{name: "every bound satisfied", profile: scenario, criteria: models.RawCriteria{
			CountryID: 86, CityID: 1001, MinSalary: 1, MaxSalary: 100000, MinBirthYear: 1995, MaxBirthYear: 1995,
		}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluate(t, tt.profile, tt.criteria))
		})
	}
}

func TestEvaluate_ExplicitZeroBound(t *testing.T) {
	e := engine
	u := register(t, e, profile{country: 5})

	c := models.Criteria{Country: models.Value[uint32](0)}
	h, err := Evaluate(context.Background(), e, u, c)
	require.NoError(t, err)

	ok, err := simfhe.NewGateway(e, allowAll{}).DecryptBool(context.Background(), h, user)
	require.NoError(t, err)
	assert.False(t, ok, "Value(0) constrains, unlike Any")
}

// recorder logs the operations it is asked to run and answers with fresh
// handles; it never looks at cleartexts.
type recorder struct {
	ops  []string
	next byte
	fail string
}

func (r *recorder) handle(op string) (fhe.Handle, error) {
	if op == r.fail {
		return fhe.Handle{}, errors.New("fabric unavailable")
	}
	r.ops = append(r.ops, op)
	r.next++
	return fhe.NewHandle([]byte{r.next}, fhe.KindBool), nil
}

func (r *recorder) FromExternal(context.Context, fhe.Address, fhe.Address, []fhe.Handle, []fhe.Kind, []byte) ([]fhe.Handle, error) {
	return nil, errors.New("not used")
}
func (r *recorder) TrivialBool(_ context.Context, v bool) (fhe.Handle, error) {
	return r.handle(fmt.Sprintf("trivial(%v)", v))
}
func (r *recorder) EqScalar(_ context.Context, _ fhe.Handle, v uint64) (fhe.Handle, error) {
	return r.handle(fmt.Sprintf("eq(%d)", v))
}
func (r *recorder) GeScalar(_ context.Context, _ fhe.Handle, v uint64) (fhe.Handle, error) {
	return r.handle(fmt.Sprintf("ge(%d)", v))
}
func (r *recorder) LeScalar(_ context.Context, _ fhe.Handle, v uint64) (fhe.Handle, error) {
	return r.handle(fmt.Sprintf("le(%d)", v))
}
func (r *recorder) And(context.Context, fhe.Handle, fhe.Handle) (fhe.Handle, error) {
	return r.handle("and")
}

func TestEvaluate_OperationSequence(t *testing.T) {
	c := models.RawCriteria{CountryID: 86, MinBirthYear: 1980, MaxBirthYear: 2000}.Criteria()

	var runs [][]string
	for _, u := range []*models.UserRecord{
		{Country: fhe.NewHandle([]byte{1}, fhe.KindUint32)},
		{Country: fhe.NewHandle([]byte{2}, fhe.KindUint32)},
	} {
		r := &recorder{}
		_, err := Evaluate(context.Background(), r, u, c)
		require.NoError(t, err)
		runs = append(runs, r.ops)
	}

	assert.Equal(t, []string{
		"eq(86)", "trivial(true)",
		"trivial(true)", "trivial(true)", "and",
		"ge(1980)", "le(2000)", "and",
		"and", "and", "and",
	}, runs[0])
	assert.Equal(t, runs[0], runs[1], "operations must not depend on the record")
}

func TestEvaluate_FabricError(t *testing.T) {
	r := &recorder{fail: "le(2000)"}
	c := models.RawCriteria{MaxBirthYear: 2000}.Criteria()

	_, err := Evaluate(context.Background(), r, &models.UserRecord{}, c)
	assert.ErrorContains(t, err, "birth year")
}
