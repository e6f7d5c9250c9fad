package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// Report is a single call recorded by TestAPI.
type Report struct {
	Kind   string
	ID     string
	Params []any
}

// TestAPI is an API implementation for tests, it logs every report to the
// test log and keeps them around for assertions.
type TestAPI struct {
	t       testing.TB
	lock    sync.Mutex
	reports []Report
}

func NewTestAPI(t testing.TB) *TestAPI {
	return &TestAPI{t: t}
}

func (a *TestAPI) record(kind, id string, params []any) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.reports = append(a.reports, Report{Kind: kind, ID: id, Params: params})
	a.t.Log(kind, id, fmt.Sprint(params...))
}

func (a *TestAPI) ReportBroken(id string, params ...any) {
	a.record("broken", id, params)
}

func (a *TestAPI) ReportWarning(id string, params ...any) {
	a.record("warning", id, params)
}

func (a *TestAPI) ReportDebug(msg string, params ...any) {
	a.record("debug", msg, params)
}

func (a *TestAPI) ReportCount(id string, count int64) {
	a.record("count", id, []any{count})
}

// Reports returns the recorded reports of the given kind whose id contains
// the given substring.
func (a *TestAPI) Reports(kind, id string) []Report {
	a.lock.Lock()
	defer a.lock.Unlock()

	var out []Report
	for _, r := range a.reports {
		if r.Kind == kind && strings.Contains(r.ID, id) {
			out = append(out, r)
		}
	}
	return out
}
