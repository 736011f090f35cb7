package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parking-sim/parking-sim/engine"
	"github.com/parking-sim/parking-sim/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return New(testService(t, 2, 2), NewMetrics())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_AllocateAndGet(t *testing.T) {
	srv := testServer(t)

	// WHEN a vehicle is allocated over HTTP
	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate?policy=sequential",
		serviceRequest("KA-01", 2))

	// THEN the record comes back as 201 and is retrievable by id
	if rr.Code != http.StatusCreated {
		t.Fatalf("allocate: got %d (%s), want 201", rr.Code, rr.Body.String())
	}
	var rec store.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}
	if rec.BayAssigned != 1 || rec.SlotAssigned != 1 {
		t.Errorf("assignment: got bay %d slot %d, want 1/1", rec.BayAssigned, rec.SlotAssigned)
	}

	got := doJSON(t, srv.Handler(), http.MethodGet, "/api/parking/allocation/"+rec.ID, nil)
	if got.Code != http.StatusOK {
		t.Errorf("get allocation: got %d, want 200", got.Code)
	}
}

func TestServer_AllocateInvalidWindow(t *testing.T) {
	srv := testServer(t)
	bad := engine.VehicleRequest{VehicleID: "KA-01", ArrivalTime: testNow, DepartureTime: testNow}

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate", bad)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad window: got %d, want 400", rr.Code)
	}
}

func TestServer_AllocateFullFacilityConflicts(t *testing.T) {
	srv := testServer(t)
	for i := 0; i < 4; i++ {
		rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate?policy=sequential",
			serviceRequest(fmt.Sprintf("KA-%02d", i+1), 2))
		if rr.Code != http.StatusCreated {
			t.Fatalf("allocate %d: got %d", i, rr.Code)
		}
	}

	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate?policy=sequential",
		serviceRequest("KA-05", 2))
	if rr.Code != http.StatusConflict {
		t.Errorf("allocate on full facility: got %d, want 409", rr.Code)
	}
}

func TestServer_Status(t *testing.T) {
	srv := testServer(t)
	doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate?policy=sequential",
		serviceRequest("KA-01", 2))

	rr := doJSON(t, srv.Handler(), http.MethodGet, "/api/parking/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var status engine.FacilityStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.TotalSlots != 4 || status.OccupiedSlots != 1 {
		t.Errorf("status: got %d/%d, want 4 total 1 occupied", status.TotalSlots, status.OccupiedSlots)
	}
}

func TestServer_SimulateAndClear(t *testing.T) {
	srv := testServer(t)

	vehicles := []engine.VehicleRequest{
		serviceRequest("KA-01", 1),
		serviceRequest("KA-02", 1),
	}
	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/simulate", simulateRequest{
		Vehicles: vehicles,
		Policy:   engine.PolicySequential,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("simulate: got %d (%s), want 200", rr.Code, rr.Body.String())
	}
	var report engine.SimulationReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Successful != 2 {
		t.Errorf("simulate: got %d successful, want 2", report.Successful)
	}

	if rr := doJSON(t, srv.Handler(), http.MethodDelete, "/api/parking/clear/sequential", nil); rr.Code != http.StatusOK {
		t.Errorf("clear: got %d, want 200", rr.Code)
	}
	list := doJSON(t, srv.Handler(), http.MethodGet, "/api/parking/allocations?policy=sequential", nil)
	var records []store.Record
	if err := json.Unmarshal(list.Body.Bytes(), &records); err != nil {
		t.Fatalf("decoding records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records after clear: got %d, want 0", len(records))
	}
}

func TestServer_EndAllocation(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv.Handler(), http.MethodPost, "/api/parking/allocate?policy=sequential",
		serviceRequest("KA-01", 2))
	var rec store.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decoding record: %v", err)
	}

	if rr := doJSON(t, srv.Handler(), http.MethodDelete, "/api/parking/allocation/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("end: got %d, want 200", rr.Code)
	}
	if rr := doJSON(t, srv.Handler(), http.MethodDelete, "/api/parking/allocation/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("end missing: got %d, want 404", rr.Code)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d, want 200", rr.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv := testServer(t)
	rr := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rr.Code)
	}
}
