package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/staffdesk-client/internal/credentials"
	"github.com/samvad-hq/staffdesk-client/internal/domain"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ErrUsage is returned when the command line cannot be parsed.
var ErrUsage = errors.New("usage error")

const usage = `usage: staffctl [--output yaml|json] <command> [flags]

commands:
  list                      list employees
  create                    onboard an employee
  set-status                activate or deactivate an employee
  login --token TOKEN       store the API credential
  logout                    remove the stored API credential
`

type command func(ctx context.Context, a *App, args []string) (any, error)

var commands = map[string]command{
	"list":       runList,
	"create":     runCreate,
	"set-status": runSetStatus,
	"login":      runLogin,
	"logout":     runLogout,
}

// Execute runs one command and writes its result to the configured output.
func (a *App) Execute(ctx context.Context, args []string) error {
	if a == nil || a.employees == nil {
		return fmt.Errorf("app is not initialized")
	}

	global := pflag.NewFlagSet("staffctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	format := global.StringP("output", "o", a.cfg.OutputFormat, "output format (yaml or json)")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v\n%s", ErrUsage, err, usage)
	}

	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: missing command\n%s", ErrUsage, usage)
	}
	name := rest[0]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, name, usage)
	}

	result, err := cmd(ctx, a, rest[1:])
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return render(a.out, strings.ToLower(*format), result)
}

func runList(ctx context.Context, a *App, args []string) (any, error) {
	fs := newFlagSet("list")
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return a.employees.List(ctx)
}

func runCreate(ctx context.Context, a *App, args []string) (any, error) {
	fs := newFlagSet("create")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	phone := fs.String("phone", "", "phone number")
	role := fs.String("role", "", "role")
	hireDate := fs.String("hire-date", "", "hire date (YYYY-MM-DD)")
	active := fs.Bool("active", true, "create the employee as active")
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}

	data := domain.EmployeeCreate{
		FirstName: *firstName,
		LastName:  *lastName,
		PhoneNum:  *phone,
		Role:      *role,
		HireDate:  *hireDate,
	}
	if fs.Changed("active") {
		data.IsActive = active
	}
	return a.employees.Create(ctx, data)
}

func runSetStatus(ctx context.Context, a *App, args []string) (any, error) {
	fs := newFlagSet("set-status")
	id := fs.Int64("id", 0, "employee id")
	active := fs.Bool("active", false, "active flag to set")
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if !fs.Changed("id") {
		return nil, fmt.Errorf("%w: set-status requires --id", ErrUsage)
	}
	if !fs.Changed("active") {
		return nil, fmt.Errorf("%w: set-status requires --active", ErrUsage)
	}

	raw, err := a.employees.UpdateStatus(ctx, *id, *active)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func runLogin(_ context.Context, a *App, args []string) (any, error) {
	fs := newFlagSet("login")
	token := fs.String("token", "", "API token issued by the backend")
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if strings.TrimSpace(*token) == "" {
		return nil, fmt.Errorf("%w: login requires --token", ErrUsage)
	}

	w, err := a.writableStore()
	if err != nil {
		return nil, err
	}
	if err := w.Put(a.cfg.CredentialKey, strings.TrimSpace(*token)); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	a.log.InfoObj("credential stored", "credential_key", a.cfg.CredentialKey)
	return nil, nil
}

func runLogout(_ context.Context, a *App, args []string) (any, error) {
	fs := newFlagSet("logout")
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}

	w, err := a.writableStore()
	if err != nil {
		return nil, err
	}
	if err := w.Delete(a.cfg.CredentialKey); err != nil {
		return nil, fmt.Errorf("remove credential: %w", err)
	}
	a.log.InfoObj("credential removed", "credential_key", a.cfg.CredentialKey)
	return nil, nil
}

func (a *App) writableStore() (credentials.Writer, error) {
	w, ok := a.store.(credentials.Writer)
	if !ok {
		return nil, fmt.Errorf("credential store %q is read-only", a.cfg.CredentialStore)
	}
	return w, nil
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func usageError(err error) error {
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// render writes result as YAML or indented JSON. YAML output goes through a
// generic JSON decode so opaque JSON fields render as structured data. A raw
// body that is not JSON is written as text.
func render(w io.Writer, format string, result any) error {
	if raw, ok := result.(json.RawMessage); ok && !json.Valid(raw) {
		if !bytes.HasSuffix(raw, []byte("\n")) {
			raw = append(raw, '\n')
		}
		_, err := w.Write(raw)
		return err
	}

	switch format {
	case "json":
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = w.Write(append(payload, '\n'))
		return err
	case "yaml", "":
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		var generic any
		if err := json.Unmarshal(payload, &generic); err != nil {
			return fmt.Errorf("normalize result: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unsupported output format %q", ErrUsage, format)
	}
}
