package cli

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/kirychukyurii/webitel-scheduler-console/internal/apierror"
)

// ErrReported is returned once a failure has already been printed
var ErrReported = errors.New("command failed")

// printer renders command output with pterm
type printer struct {
	out         io.Writer
	err         io.Writer
	interactive bool
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{
		out:         out,
		err:         errOut,
		interactive: isTerminal(errOut),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// table renders rows below header
func (p *printer) table(header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(p.out).Render()
}

// fields renders label/value pairs
func (p *printer) fields(pairs [][]string) error {
	return pterm.DefaultTable.WithData(pterm.TableData(pairs)).WithWriter(p.out).Render()
}

func (p *printer) success(format string, args ...any) {
	pterm.Success.WithWriter(p.out).Printfln(format, args...)
}

// created reports a new resource; the scheduler may not return its id
func (p *printer) created(kind, name, id string) {
	if id == "" {
		p.success("%s %s created", kind, name)
		return
	}
	p.success("%s %s created with id %s", kind, name, id)
}

func (p *printer) info(format string, args ...any) {
	pterm.Info.WithWriter(p.out).Printfln(format, args...)
}

// errorMap prints an error map as a table, the general message first
func (p *printer) errorMap(errs map[string]string) {
	if len(errs) == 0 {
		return
	}

	if msg, ok := errs[apierror.ErrorKey]; ok {
		pterm.Error.WithWriter(p.err).Println(msg)
	}

	keys := make([]string, 0, len(errs))
	for k := range errs {
		if k != apierror.ErrorKey {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	data := pterm.TableData{{"Field", "Message"}}
	for _, k := range keys {
		data = append(data, []string{k, errs[k]})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(p.err).Render()
}

// fail prints err and returns ErrReported so the caller exits non-zero
func (p *printer) fail(err error) error {
	p.errorMap(apierror.ToErrorMap(err))
	return ErrReported
}

// spin runs fn behind a spinner when stderr is a terminal
func (p *printer) spin(text string, fn func() error) error {
	if !p.interactive {
		return fn()
	}

	spinner, err := pterm.DefaultSpinner.WithWriter(p.err).Start(text)
	if err != nil {
		return fn()
	}

	err = fn()
	if err != nil {
		spinner.Fail(text)
	} else {
		spinner.Success(text)
	}
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

// parseHeader accepts "Name: value" and "Name=value"
func parseHeader(s string) (name, value string, err error) {
	if i := strings.IndexAny(s, ":="); i > 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), nil
	}
	return "", "", errors.Newf("invalid header %q, expected Name: value", s)
}
