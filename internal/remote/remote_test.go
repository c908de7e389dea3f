package remote

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwchcd/rwchcd/internal/alarms"
	"github.com/rwchcd/rwchcd/internal/bmodel"
	"github.com/rwchcd/rwchcd/internal/hcircuit"
	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/runtime"
	"github.com/rwchcd/rwchcd/internal/scheduler"
	"github.com/rwchcd/rwchcd/internal/sensors"
)

type fakeBackend struct{ c float64 }

func (f *fakeBackend) Read(id string) (float64, error) { return f.c, nil }

func newTestServer(t *testing.T) (*Server, *hcircuit.HCircuit) {
	t.Helper()
	sr := sensors.NewRegistry(0)
	sr.Register("out", "out", &fakeBackend{c: 35})
	sr.Poll(1)
	bm := bmodel.New(bmodel.Params{Tau: 600})
	bm.SetOnline(true)

	rt := runtime.New()
	al := alarms.NewRaiser(nil, 0)
	hc := hcircuit.New(model.HCircuitConfig{Name: "circuit1", SensorOut: "out"}, bm, sr, scheduler.NewRegistry(), rt, al)
	require.Equal(t, model.OK, hc.Online())

	s := NewServer(rt, nil, map[string]*hcircuit.HCircuit{"circuit1": hc}, nil)
	return s, hc
}

func TestSystemModeGetAndPut(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/system/mode")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := json.Marshal(map[string]string{"run_mode": "comfort"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/system/mode", bytes.NewReader(body))
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, putResp.StatusCode)
	assert.Equal(t, model.RunComfort, s.rt.RunMode())
}

func TestHCircuitOverridePut(t *testing.T) {
	s, hc := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"run_mode_override": "eco"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/hcircuit/circuit1", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/hcircuit/circuit1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	_ = hc
}

func TestUnknownEntityReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/hcircuit/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
