// Package eligibility computes the encrypted verdict of a user record against
// application criteria. The sequence of fabric operations depends only on
// which bounds are set, never on the attribute values.
package eligibility

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

// Evaluate returns a KindBool handle encrypting whether u satisfies c.
func Evaluate(ctx context.Context, f fhe.Fabric, u *models.UserRecord, c models.Criteria) (fhe.Handle, error) {
	country, err := equal(ctx, f, u.Country, c.Country)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("country: %w", err)
	}
	city, err := equal(ctx, f, u.City, c.City)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("city: %w", err)
	}
	salary, err := within(ctx, f, u.Salary, c.MinSalary, c.MaxSalary)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("salary: %w", err)
	}
	birthYear, err := within(ctx, f, u.BirthYear, c.MinBirthYear, c.MaxBirthYear)
	if err != nil {
		return fhe.Handle{}, fmt.Errorf("birth year: %w", err)
	}

	result := country
	for _, next := range []fhe.Handle{city, salary, birthYear} {
		if result, err = f.And(ctx, result, next); err != nil {
			return fhe.Handle{}, fmt.Errorf("combine: %w", err)
		}
	}
	return result, nil
}

func equal[T models.Unsigned](ctx context.Context, f fhe.Fabric, attr fhe.Handle, b models.Bound[T]) (fhe.Handle, error) {
	v, ok := b.Get()
	if !ok {
		return f.TrivialBool(ctx, true)
	}
	return f.EqScalar(ctx, attr, uint64(v))
}

func within[T models.Unsigned](ctx context.Context, f fhe.Fabric, attr fhe.Handle, lo, hi models.Bound[T]) (fhe.Handle, error) {
	lower, err := bound(ctx, f, attr, lo, f.GeScalar)
	if err != nil {
		return fhe.Handle{}, err
	}
	upper, err := bound(ctx, f, attr, hi, f.LeScalar)
	if err != nil {
		return fhe.Handle{}, err
	}
	return f.And(ctx, lower, upper)
}

type scalarOp func(ctx context.Context, a fhe.Handle, v uint64) (fhe.Handle, error)

func bound[T models.Unsigned](ctx context.Context, f fhe.Fabric, attr fhe.Handle, b models.Bound[T], op scalarOp) (fhe.Handle, error) {
	v, ok := b.Get()
	if !ok {
		return f.TrivialBool(ctx, true)
	}
	return op(ctx, attr, uint64(v))
}
