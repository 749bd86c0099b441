package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestRecorderNil(t *testing.T) {
	var r *Recorder
	r.ObserveTrigger("manual", OutcomeStarted)
	r.ObserveReaped(1)
	r.ObserveOutboxFired(1)
	r.ObserveContentCommit(true)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveTrigger("manual", OutcomeBusy)
	r.ObserveReaped(2)

	w := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(w.Result().Body)
	if err != nil {
		t.Fatalf("didn't want %v", err)
	}
	for _, want := range []string{
		`sitebuild_build_triggers_total{outcome="busy",source="manual"} 1`,
		`sitebuild_builds_reaped_total 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("got body without %q", want)
		}
	}
}
