package employee

import (
	"context"
	"net/http"

	employeeerrors "go-payroll-admin/internal/employee/errors"
	"go-payroll-admin/internal/shared/cache"
	"go-payroll-admin/internal/shared/restapi"

	"go.uber.org/zap"
)

// EmployeeOptionsKeyPrefix is completed per caller with cache.ScopedKey.
const EmployeeOptionsKeyPrefix = "employees:options:"

// API is the subset of the REST client the directory needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, out any) (string, error)
}

type Directory interface {
	List(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id int64) (Employee, error)
	Invalidate(ctx context.Context) error
}

type directory struct {
	api    API
	cache  *cache.Loader
	logger *zap.Logger
}

var _ API = (*restapi.Client)(nil)

func NewDirectory(api API, loader *cache.Loader, logger ...*zap.Logger) Directory {
	l := zap.L().Named("employee.directory")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.directory")
	}
	return &directory{api: api, cache: loader, logger: l}
}

func (d *directory) List(ctx context.Context) ([]Employee, error) {
	return cache.GetOrLoad(ctx, d.cache, cache.ScopedKey(ctx, EmployeeOptionsKeyPrefix), func(ctx context.Context) ([]Employee, error) {
		var employees []Employee
		if _, err := d.api.Do(ctx, http.MethodGet, "/employees", nil, &employees); err != nil {
			d.logger.Error("list employees failed", zap.Error(err))
			return nil, err
		}
		if employees == nil {
			employees = []Employee{}
		}
		d.logger.Debug("employees loaded", zap.Int("count", len(employees)))
		return employees, nil
	})
}

func (d *directory) FindByID(ctx context.Context, id int64) (Employee, error) {
	if id <= 0 {
		return Employee{}, employeeerrors.ErrInvalidEmployeeID
	}

	employees, err := d.List(ctx)
	if err != nil {
		return Employee{}, err
	}

	for _, e := range employees {
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, employeeerrors.ErrEmployeeNotFound
}

func (d *directory) Invalidate(ctx context.Context) error {
	key := cache.ScopedKey(ctx, EmployeeOptionsKeyPrefix)
	if err := d.cache.Invalidate(ctx, key); err != nil {
		d.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", key),
		)
		return err
	}
	return nil
}
