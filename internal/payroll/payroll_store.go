package payroll

import (
	"context"
	"fmt"
	"net/http"

	"go-payroll-admin/internal/shared/restapi"
)

// API is the subset of the REST client used by the payroll store.
type API interface {
	Do(ctx context.Context, method, path string, body any, out any) (string, error)
	Raw(ctx context.Context, method, path string) ([]byte, string, error)
}

var _ API = (*restapi.Client)(nil)

// Store is the remote payslip persistence and side-effect service. Every call is a
// single round trip; string results carry the server message.
type Store interface {
	List(ctx context.Context) ([]Payslip, error)
	Create(ctx context.Context, req PayslipRequest) (Payslip, string, error)
	Update(ctx context.Context, id int64, req PayslipRequest) (Payslip, string, error)
	Delete(ctx context.Context, id int64) (string, error)
	Send(ctx context.Context, id int64) (string, error)
	SendAll(ctx context.Context) (string, error)
	Download(ctx context.Context, id int64) ([]byte, error)
}

type restStore struct {
	api API
}

func NewStore(api API) Store {
	return &restStore{api: api}
}

func (s *restStore) List(ctx context.Context) ([]Payslip, error) {
	var payslips []Payslip
	if _, err := s.api.Do(ctx, http.MethodGet, "/payrolls", nil, &payslips); err != nil {
		return nil, err
	}
	if payslips == nil {
		payslips = []Payslip{}
	}
	return payslips, nil
}

func (s *restStore) Create(ctx context.Context, req PayslipRequest) (Payslip, string, error) {
	var created Payslip
	msg, err := s.api.Do(ctx, http.MethodPost, "/payrolls", req, &created)
	return created, msg, err
}

func (s *restStore) Update(ctx context.Context, id int64, req PayslipRequest) (Payslip, string, error) {
	var updated Payslip
	msg, err := s.api.Do(ctx, http.MethodPut, fmt.Sprintf("/payrolls/%d", id), req, &updated)
	return updated, msg, err
}

func (s *restStore) Delete(ctx context.Context, id int64) (string, error) {
	return s.api.Do(ctx, http.MethodDelete, fmt.Sprintf("/payrolls/%d", id), nil, nil)
}

func (s *restStore) Send(ctx context.Context, id int64) (string, error) {
	return s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/payrolls/%d/send", id), nil, nil)
}

func (s *restStore) SendAll(ctx context.Context) (string, error) {
	return s.api.Do(ctx, http.MethodPost, "/payrolls/send-all", nil, nil)
}

func (s *restStore) Download(ctx context.Context, id int64) ([]byte, error) {
	content, _, err := s.api.Raw(ctx, http.MethodGet, fmt.Sprintf("/payrolls/%d/download", id))
	return content, err
}
