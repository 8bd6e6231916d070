package employees

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/samvad-hq/staffdesk-client/internal/domain"
	"github.com/samvad-hq/staffdesk-client/internal/logger"
	"github.com/samvad-hq/staffdesk-client/pkg/httpclient"
	"github.com/tidwall/gjson"
)

const (
	listPath   = "/employees/"
	createPath = "/auth/create-employee/"
	statusPath = "/employees/{id}/status/"

	createFailedMessage = "failed to create employee"
)

// Requester is the subset of the authenticated client the service calls through.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, pathParams map[string]string, body, out any) error
}

// Service exposes the employee operations of the backend. Every method issues
// exactly one request and returns the client's error unchanged.
type Service struct {
	client Requester
	log    logger.Logger
}

// NewService wires the service to an authenticated client.
func NewService(client Requester, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{client: client, log: log}
}

// List returns employees in the order the server sent them.
func (s *Service) List(ctx context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	if err := s.client.Get(ctx, listPath, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Employee{}
	}
	return out, nil
}

// Create onboards an employee and returns the record the server created.
//
// A failure is logged at warn level with the server's diagnostic before the
// identical error is returned to the caller.
func (s *Service) Create(ctx context.Context, data domain.EmployeeCreate) (domain.Employee, error) {
	var out domain.Employee
	if err := s.client.Post(ctx, createPath, data, &out); err != nil {
		s.log.WarnObj("create employee failed", "create_employee_error", map[string]any{
			"status":     httpclient.StatusCode(err),
			"diagnostic": diagnostic(err),
			"error":      err.Error(),
		})
		return domain.Employee{}, err
	}
	return out, nil
}

// UpdateStatus sets the active flag of an employee and returns the server's
// response body byte for byte. The body is not required to be JSON.
func (s *Service) UpdateStatus(ctx context.Context, employeeID int64, isActive bool) (json.RawMessage, error) {
	var out json.RawMessage
	params := map[string]string{"id": strconv.FormatInt(employeeID, 10)}
	if err := s.client.Patch(ctx, statusPath, params, domain.StatusUpdate{IsActive: isActive}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// diagnostic prefers the "detail" field of a JSON error body, then the raw body.
func diagnostic(err error) string {
	body := httpclient.Body(err)
	if len(body) == 0 {
		return createFailedMessage
	}
	if gjson.ValidBytes(body) {
		if detail := gjson.GetBytes(body, "detail"); detail.Exists() {
			return detail.String()
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return createFailedMessage
}
