package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seba-07/bysimmed-production-console/internal/erp"
	"github.com/Seba-07/bysimmed-production-console/internal/production"
	"github.com/Seba-07/bysimmed-production-console/internal/timer"
)

type stubAPI struct {
	orders []erp.Order
	comps  []erp.Component
}

func (s *stubAPI) ListOrders(context.Context) ([]erp.Order, error)         { return s.orders, nil }
func (s *stubAPI) ListComponents(context.Context) ([]erp.Component, error) { return s.comps, nil }
func (s *stubAPI) UpdateOrderStatus(context.Context, string, erp.Status) error {
	return nil
}

func newTestServer() *httptest.Server {
	api := &stubAPI{
		orders: []erp.Order{{
			ID:          "o1",
			NumeroOrden: 7,
			Cliente:     "Clinica Norte",
			FechaLimite: time.Now().Add(48 * time.Hour),
			Estado:      erp.StatusActiva,
			Productos: []erp.OrderProduct{
				{ItemID: "p1", ItemType: erp.ItemTypeComponent, ItemName: "Base", Cantidad: 1},
				{
					ItemID: "p2", ItemType: erp.ItemTypeModel, ItemName: "Torso", Cantidad: 1,
					ComponentesSeleccionados: []string{"c1"},
				},
			},
		}},
		comps: []erp.Component{{ID: "c1", Nombre: "Piel"}},
	}
	svc := &production.Service{
		API:         api,
		Board:       timer.NewBoard(nil),
		ServiceName: "test",
	}
	r := NewRouter()
	h := &ProductionHandler{Service: svc}
	h.Register(r)
	return httptest.NewServer(r)
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHandler_StartAndListOrders(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/production/orders/o1/products/p1/start", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", resp.StatusCode)
	}
	var res production.TransitionResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Timer.Status != timer.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", res.Timer.Status)
	}

	listResp, err := http.Get(srv.URL + "/production/orders")
	if err != nil {
		t.Fatalf("GET orders: %v", err)
	}
	defer listResp.Body.Close()
	var views []production.OrderView
	if err := json.NewDecoder(listResp.Body).Decode(&views); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(views) != 1 || views[0].Productos[0].Timer == nil {
		t.Fatalf("expected started timer attached to listing, got %+v", views)
	}
}

func TestHandler_ResetRequiresConfirmation(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	_ = post(t, srv.URL+"/production/orders/o1/products/p1/start", "").Body.Close()

	resp := post(t, srv.URL+"/production/orders/o1/products/p1/reset", "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Fatalf("no body: expected 428, got %d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/production/orders/o1/products/p1/reset", `{"confirm": false}`)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusPreconditionRequired {
		t.Fatalf("declined: expected 428, got %d", resp.StatusCode)
	}

	resp = post(t, srv.URL+"/production/orders/o1/products/p1/reset", `{"confirm": true}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed: expected 200, got %d", resp.StatusCode)
	}
	var res production.TransitionResult
	_ = json.NewDecoder(resp.Body).Decode(&res)
	if res.Timer.Status != timer.StatusPending || res.Timer.ElapsedSeconds != 0 {
		t.Fatalf("expected pending/0 after reset, got %+v", res.Timer)
	}
}

func TestHandler_CompleteModelWithOpenComponents(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	_ = post(t, srv.URL+"/production/orders/o1/products/p2/start", "").Body.Close()

	resp := post(t, srv.URL+"/production/orders/o1/products/p2/complete", "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 with open components, got %d", resp.StatusCode)
	}
}

func TestHandler_CompleteOrderFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	// Order completion before the work is done: confirmed but conflicting.
	resp := post(t, srv.URL+"/production/orders/o1/complete", `{"confirm": true}`)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for unfinished order, got %d", resp.StatusCode)
	}

	_ = post(t, srv.URL+"/production/orders/o1/products/p1/start", "").Body.Close()
	_ = post(t, srv.URL+"/production/orders/o1/products/p1/complete", "").Body.Close()
	_ = post(t, srv.URL+"/production/orders/o1/products/p2/start", "").Body.Close()
	_ = post(t, srv.URL+"/production/orders/o1/products/p2/components/c1/start", "").Body.Close()
	_ = post(t, srv.URL+"/production/orders/o1/products/p2/components/c1/complete", "").Body.Close()

	resp = post(t, srv.URL+"/production/orders/o1/products/p2/complete", "")
	defer resp.Body.Close()
	var res production.TransitionResult
	_ = json.NewDecoder(resp.Body).Decode(&res)
	if !res.OrderCompletable {
		t.Fatalf("expected orderCompletable after last product, got %+v", res)
	}

	resp = post(t, srv.URL+"/production/orders/o1/complete", `{"confirm": true}`)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 completing finished order, got %d", resp.StatusCode)
	}
}

func TestHandler_UnknownTimer404(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	resp := post(t, srv.URL+"/production/orders/o1/products/p1/pause", "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("pausing a never-started timer: expected 404, got %d", resp.StatusCode)
	}
}

func TestHandler_DashboardAndComponents(t *testing.T) {
	t.Parallel()

	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/production/dashboard")
	if err != nil {
		t.Fatalf("GET dashboard: %v", err)
	}
	defer resp.Body.Close()
	var dv production.DashboardView
	if err := json.NewDecoder(resp.Body).Decode(&dv); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if len(dv.Orders) != 1 || len(dv.Components) != 1 {
		t.Fatalf("unexpected dashboard: %+v", dv)
	}

	cResp, err := http.Get(srv.URL + "/inventory/components")
	if err != nil {
		t.Fatalf("GET components: %v", err)
	}
	defer cResp.Body.Close()
	var comps []erp.Component
	if err := json.NewDecoder(cResp.Body).Decode(&comps); err != nil {
		t.Fatalf("decode components: %v", err)
	}
	if len(comps) != 1 || comps[0].Nombre != "Piel" {
		t.Fatalf("unexpected components: %+v", comps)
	}
}
