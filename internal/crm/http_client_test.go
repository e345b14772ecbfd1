package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "dealboard/internal/errors"
)

func TestHTTPClientListPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/workspaces/ws-1/deals" {
			t.Errorf("path = %s, want /workspaces/ws-1/deals", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q, want bearer token", got)
		}
		_ = json.NewEncoder(w).Encode(PipelineSnapshot{
			Stages: []string{"New Lead", "Won", "Lost"},
			Deals:  []Deal{{ID: "dl-1", Title: "Acme", Value: 5000, Stage: "New Lead"}},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1", WithToken("tok"))
	snapshot, err := client.ListPipeline(context.Background())
	if err != nil {
		t.Fatalf("ListPipeline: %v", err)
	}
	if len(snapshot.Stages) != 3 || len(snapshot.Deals) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Deals[0].Title != "Acme" {
		t.Errorf("deal title = %q, want Acme", snapshot.Deals[0].Title)
	}
}

func TestHTTPClientMoveDealRequestShape(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/workspaces/ws-1/deals/dl-1/move" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Deal{ID: "dl-1", Stage: "Won", Position: 0})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1")
	deal, err := client.MoveDeal(context.Background(), "dl-1", "Won", 0)
	if err != nil {
		t.Fatalf("MoveDeal: %v", err)
	}
	if deal.Stage != "Won" {
		t.Errorf("stage = %q, want Won", deal.Stage)
	}
	if gotBody["stage"] != "Won" {
		t.Errorf("request stage = %v, want Won", gotBody["stage"])
	}
	if gotBody["position"] != float64(0) {
		t.Errorf("request position = %v, want 0", gotBody["position"])
	}
}

func TestHTTPClientUpdateDealSendsOnlySetFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Deal{ID: "dl-1", Title: "Renamed"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1")
	_, err := client.UpdateDeal(context.Background(), "dl-1", UpdateDealRequest{Title: StringPtr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateDeal: %v", err)
	}
	if gotBody["title"] != "Renamed" {
		t.Errorf("request title = %v", gotBody["title"])
	}
	if _, present := gotBody["value"]; present {
		t.Error("unset value field should be omitted from request body")
	}
}

func TestHTTPClientServerErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   true,
			"message": "Pipeline must have at least 2 stages",
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1")
	_, err := client.ReplaceStages(context.Background(), []string{"Only"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !appErrors.IsCode(err, appErrors.CodeRequestFailed) {
		t.Errorf("error code = %v, want request_failed", appErrors.CodeOf(err))
	}
}

func TestHTTPClientLookupContactName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/workspaces/ws-1/contacts/ct-1":
			_ = json.NewEncoder(w).Encode(map[string]string{"first_name": "Jordan", "last_name": "Ng"})
		case "/workspaces/ws-1/contacts/ct-gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1")

	name, err := client.LookupContactName(context.Background(), "ct-1")
	if err != nil {
		t.Fatalf("LookupContactName: %v", err)
	}
	if name != "Jordan Ng" {
		t.Errorf("name = %q, want \"Jordan Ng\"", name)
	}

	// Absence is not an error.
	name, err = client.LookupContactName(context.Background(), "ct-gone")
	if err != nil {
		t.Fatalf("missing contact should not error: %v", err)
	}
	if name != "" {
		t.Errorf("missing contact name = %q, want empty", name)
	}
}

func TestHTTPClientDeleteDealNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "ws-1")
	err := client.DeleteDeal(context.Background(), "dl-missing")
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}
