package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_ListOrders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/production/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"_id": "o1",
				"numeroOrden": 101,
				"cliente": "Clinica Norte",
				"fechaLimite": "2025-03-14T00:00:00Z",
				"estado": "activa",
				"productos": [
					{
						"itemId": "p2",
						"itemType": "model",
						"itemName": "Torso adulto",
						"cantidad": 1,
						"componentesSeleccionados": ["c1", "c2"]
					}
				]
			}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", srv.Client())
	orders, err := c.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	o := orders[0]
	if o.ID != "o1" || o.NumeroOrden != 101 || o.Estado != StatusActiva {
		t.Fatalf("unexpected order: %+v", o)
	}
	if !o.FechaLimite.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due date: %v", o.FechaLimite)
	}
	if len(o.Productos) != 1 || len(o.Productos[0].ComponentesSeleccionados) != 2 {
		t.Fatalf("unexpected products: %+v", o.Productos)
	}
}

func TestClient_UpdateOrderStatus(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/production/orders/o1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	if err := c.UpdateOrderStatus(context.Background(), "o1", StatusEnProceso); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if gotBody["estado"] != "en_proceso" {
		t.Fatalf("expected estado=en_proceso, got %v", gotBody)
	}
}

func TestClient_ListComponents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inventory/components" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"_id": "c1", "nombre": "Piel", "materiales": [
				{"materialId": "m1", "nombre": "Silicona", "cantidad": 0.5, "unidad": "kg"}
			]}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	comps, err := c.ListComponents(context.Background())
	if err != nil {
		t.Fatalf("list components: %v", err)
	}
	if len(comps) != 1 || comps[0].Nombre != "Piel" {
		t.Fatalf("unexpected components: %+v", comps)
	}
	if len(comps[0].Materiales) != 1 || comps[0].Materiales[0].Unidad != "kg" {
		t.Fatalf("unexpected materials: %+v", comps[0].Materiales)
	}
}

func TestClient_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	if _, err := c.ListOrders(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
	if err := c.UpdateOrderStatus(context.Background(), "o1", StatusCompletada); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusActiva, StatusEnProceso, true},
		{StatusActiva, StatusCancelada, true},
		{StatusEnProceso, StatusCompletada, true},
		{StatusActiva, StatusCompletada, false},
		{StatusCompletada, StatusEnProceso, false},
		{StatusCancelada, StatusActiva, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
