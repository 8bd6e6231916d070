package employees

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/staffdesk-client/internal/credentials"
	"github.com/samvad-hq/staffdesk-client/internal/domain"
	"github.com/samvad-hq/staffdesk-client/pkg/httpclient"
)

// recordingLogger captures WarnObj and ErrorObj calls.
type recordingLogger struct {
	mu       sync.Mutex
	warnings []map[string]any
	errors   []map[string]any
}

func (r *recordingLogger) InfoObj(string, string, interface{})  {}
func (r *recordingLogger) DebugObj(string, string, interface{}) {}
func (r *recordingLogger) WarnObj(_ string, _ string, obj interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields, _ := obj.(map[string]any)
	r.warnings = append(r.warnings, fields)
}
func (r *recordingLogger) ErrorObj(_ string, _ string, obj interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields, _ := obj.(map[string]any)
	r.errors = append(r.errors, fields)
}

// failingRequester returns err from every call.
type failingRequester struct {
	err error
}

func (f failingRequester) Get(context.Context, string, any) error {
	return f.err
}

func (f failingRequester) Post(context.Context, string, any, any) error {
	return f.err
}

func (f failingRequester) Patch(context.Context, string, map[string]string, any, any) error {
	return f.err
}

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newBackend(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newService(t *testing.T, baseURL string, log *recordingLogger) *Service {
	t.Helper()
	store := credentials.NewMemoryStore(map[string]string{"token": "secret"})
	client, err := httpclient.New(httpclient.ClientConfig{BaseURL: baseURL, Timeout: time.Second}, store, nil)
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	if log == nil {
		return NewService(client, nil)
	}
	return NewService(client, log)
}

func TestListReturnsEmptySliceForEmptyArray(t *testing.T) {
	srv, captured := newBackend(t, http.StatusOK, `[]`)
	svc := newService(t, srv.URL, nil)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if captured.method != http.MethodGet || captured.path != "/employees/" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
	if captured.auth != "Token secret" {
		t.Fatalf("expected credential header, got %q", captured.auth)
	}
}

func TestListPreservesServerOrderAndFields(t *testing.T) {
	body := `[
		{"id":9,"username":"zoe","email":"zoe@example.com","first_name":"Zoe","last_name":"Z","role":"manager",
		 "hire_date":"2021-03-04","is_active":true,"is_staff":true,"is_superuser":false,
		 "last_login_date":"2024-05-01","last_login_time":"09:15:00","phone_number":"111",
		 "groups":[1,2],"user_permissions":[]},
		{"id":2,"username":"adam","email":"adam@example.com","role":"clerk","hire_date":null,
		 "is_active":false,"is_staff":false,"is_superuser":false,"last_login_date":null,"last_login_time":null,
		 "phone_number":"222","groups":[],"user_permissions":[{"codename":"view_report"}]}
	]`
	srv, _ := newBackend(t, http.StatusOK, body)
	svc := newService(t, srv.URL, nil)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(got))
	}
	if got[0].ID != 9 || got[1].ID != 2 {
		t.Fatalf("server order not preserved: %d, %d", got[0].ID, got[1].ID)
	}

	first := got[0]
	if first.Username != "zoe" || first.Email != "zoe@example.com" || first.FirstName != "Zoe" || first.Role != "manager" {
		t.Fatalf("unexpected identity fields %+v", first)
	}
	if first.HireDate == nil || *first.HireDate != "2021-03-04" {
		t.Fatalf("unexpected hire date %v", first.HireDate)
	}
	if !first.IsActive || !first.IsStaff || first.IsSuperuser {
		t.Fatalf("unexpected flags %+v", first)
	}
	if first.LastLoginDate == nil || *first.LastLoginDate != "2024-05-01" || first.LastLoginTime == nil || *first.LastLoginTime != "09:15:00" {
		t.Fatalf("unexpected last login %v %v", first.LastLoginDate, first.LastLoginTime)
	}
	if first.PhoneNumber != "111" || string(first.Groups) != "[1,2]" {
		t.Fatalf("unexpected phone/groups %q %s", first.PhoneNumber, first.Groups)
	}

	second := got[1]
	if second.HireDate != nil || second.LastLoginDate != nil || second.IsActive {
		t.Fatalf("unexpected nullable fields %+v", second)
	}
	if string(second.UserPermissions) != `[{"codename":"view_report"}]` {
		t.Fatalf("permissions not passed through: %s", second.UserPermissions)
	}
}

func TestCreateSendsPhoneNumAndReturnsCreatedEmployee(t *testing.T) {
	created := `{"id":41,"username":"ab","email":"ab@example.com","first_name":"A","last_name":"B","role":"clerk",
		"hire_date":"2024-01-01","is_active":true,"is_staff":false,"is_superuser":false,
		"last_login_date":null,"last_login_time":null,"phone_number":"555","groups":[],"user_permissions":[]}`
	srv, captured := newBackend(t, http.StatusCreated, created)
	svc := newService(t, srv.URL, nil)

	got, err := svc.Create(context.Background(), domain.EmployeeCreate{
		FirstName: "A",
		LastName:  "B",
		PhoneNum:  "555",
		Role:      "clerk",
		HireDate:  "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if captured.method != http.MethodPost || captured.path != "/auth/create-employee/" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}

	var sent map[string]any
	if err := json.Unmarshal(captured.body, &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent["phone_num"] != "555" {
		t.Fatalf("expected phone_num=555 in request, got %v", sent)
	}
	if _, ok := sent["phone_number"]; ok {
		t.Fatalf("request must not use the read model phone key")
	}

	if got.ID != 41 || got.Username != "ab" || got.PhoneNumber != "555" || got.Role != "clerk" {
		t.Fatalf("unexpected created employee %+v", got)
	}
}

func TestCreateLogsDiagnosticThenReturnsServerError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusBadRequest, `{"detail": "duplicate"}`)
	log := &recordingLogger{}
	svc := newService(t, srv.URL, log)

	_, err := svc.Create(context.Background(), domain.EmployeeCreate{FirstName: "A"})
	if !httpclient.IsServer(err) || httpclient.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 server error, got %v", err)
	}
	if len(log.warnings) != 1 {
		t.Fatalf("expected one diagnostic warning, got %d", len(log.warnings))
	}
	if len(log.errors) != 0 {
		t.Fatalf("a rejected create must not log at error level, got %v", log.errors)
	}
	if diag, _ := log.warnings[0]["diagnostic"].(string); !strings.Contains(diag, "duplicate") {
		t.Fatalf("expected diagnostic to contain duplicate, got %v", log.warnings[0])
	}
}

func TestCreateReturnsIdenticalError(t *testing.T) {
	want := &httpclient.Error{Kind: httpclient.KindTransport, Method: http.MethodPost, Err: errors.New("connection reset")}
	log := &recordingLogger{}
	svc := NewService(failingRequester{err: want}, log)

	_, err := svc.Create(context.Background(), domain.EmployeeCreate{})
	if err != error(want) {
		t.Fatalf("expected the client error to be returned unchanged, got %v", err)
	}
	if len(log.warnings) != 1 || log.warnings[0]["diagnostic"] != createFailedMessage {
		t.Fatalf("expected generic diagnostic, got %v", log.warnings)
	}
}

func TestUpdateStatusPatchesStatusResource(t *testing.T) {
	srv, captured := newBackend(t, http.StatusOK, `{"message":"Employee deactivated","is_active":false}`)
	svc := newService(t, srv.URL, nil)

	got, err := svc.UpdateStatus(context.Background(), 7, false)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if captured.method != http.MethodPatch || captured.path != "/employees/7/status/" {
		t.Fatalf("unexpected request %s %s", captured.method, captured.path)
	}
	if string(bytes.TrimSpace(captured.body)) != `{"is_active":false}` {
		t.Fatalf("unexpected request body %s", captured.body)
	}
	if string(got) != `{"message":"Employee deactivated","is_active":false}` {
		t.Fatalf("expected raw response body, got %s", got)
	}
}

func TestUpdateStatusReturnsBodyAsReceived(t *testing.T) {
	cases := map[string]string{
		"plain text":       "status updated",
		"trailing newline": "{\"is_active\": true}\n",
		"empty object":     "{}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newBackend(t, http.StatusOK, body)
			svc := newService(t, srv.URL, nil)

			got, err := svc.UpdateStatus(context.Background(), 3, true)
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if string(got) != body {
				t.Fatalf("expected %q byte for byte, got %q", body, got)
			}
		})
	}
}

func TestOperationsPropagateServerErrors(t *testing.T) {
	srv, _ := newBackend(t, http.StatusForbidden, `{"detail":"Authentication credentials were not provided."}`)
	svc := newService(t, srv.URL, nil)

	if _, err := svc.List(context.Background()); httpclient.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("List: expected 403, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), 1, true); httpclient.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("UpdateStatus: expected 403, got %v", err)
	}
}

func TestListTimeoutIsNotServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client, err := httpclient.New(httpclient.ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil, nil)
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	svc := NewService(client, nil)

	_, err = svc.List(context.Background())
	if !httpclient.IsTimeout(err) || httpclient.IsServer(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestConcurrentCallsShareOneClient(t *testing.T) {
	var (
		mu    sync.Mutex
		auths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[{"id":1,"username":"shared"}]`))
			return
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 100, "username": in["first_name"]})
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, &recordingLogger{})

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers*2)
	for i := 0; i < callers; i++ {
		wg.Add(2)
		name := fmt.Sprintf("user-%02d", i)
		go func() {
			defer wg.Done()
			got, err := svc.Create(context.Background(), domain.EmployeeCreate{FirstName: name})
			if err != nil {
				errs <- err
				return
			}
			if got.Username != name {
				errs <- fmt.Errorf("caller %s got result for %s", name, got.Username)
			}
		}()
		go func() {
			defer wg.Done()
			got, err := svc.List(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if len(got) != 1 || got[0].Username != "shared" {
				errs <- fmt.Errorf("unexpected list %+v", got)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(auths) != callers*2 {
		t.Fatalf("expected %d requests, got %d", callers*2, len(auths))
	}
	for i, auth := range auths {
		if auth != "Token secret" {
			t.Fatalf("request %d carried %q", i, auth)
		}
	}
}
