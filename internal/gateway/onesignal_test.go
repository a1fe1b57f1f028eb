package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOneSignalGatewaySendToAudienceSuccess(t *testing.T) {
	t.Parallel()

	var gotBody oneSignalRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"os-msg-1","recipients":12}`))
	}))
	defer server.Close()

	g, err := NewOneSignalGateway(server.URL, "app-1", "api-key-1", 0)
	if err != nil {
		t.Fatalf("NewOneSignalGateway() error = %v", err)
	}

	audience := Audience{City: "Istanbul", BloodType: "O-"}
	data := map[string]string{"type": "blood_request", "requestId": "r1"}

	resp, err := g.SendToAudience(context.Background(), audience, "EMERGENCY: O- Blood Needed!", "O- blood needed - 2 unit(s) required. Tap to respond.", data)
	if err != nil {
		t.Fatalf("SendToAudience() unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if resp.MessageID != "os-msg-1" {
		t.Fatalf("MessageID = %q, want %q", resp.MessageID, "os-msg-1")
	}

	if gotAuth != "Basic api-key-1" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Basic api-key-1")
	}
	if gotBody.AppID != "app-1" {
		t.Fatalf("request.app_id = %q, want %q", gotBody.AppID, "app-1")
	}
	if gotBody.Headings["en"] != "EMERGENCY: O- Blood Needed!" {
		t.Fatalf("request.headings.en = %q", gotBody.Headings["en"])
	}

	if len(gotBody.Filters) != 3 {
		t.Fatalf("len(filters) = %d, want 3", len(gotBody.Filters))
	}
	if gotBody.Filters[0].Key != "city" || gotBody.Filters[0].Value != "Istanbul" {
		t.Fatalf("filters[0] = %+v, want city=Istanbul", gotBody.Filters[0])
	}
	if gotBody.Filters[1].Operator != "AND" {
		t.Fatalf("filters[1].operator = %q, want AND", gotBody.Filters[1].Operator)
	}
	if gotBody.Filters[2].Key != "bloodType" || gotBody.Filters[2].Value != "O-" {
		t.Fatalf("filters[2] = %+v, want bloodType=O-", gotBody.Filters[2])
	}
}

func TestOneSignalGatewaySendToAudienceStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request is permanent", statusCode: http.StatusBadRequest, wantTransient: false},
		{name: "service unavailable is transient", statusCode: http.StatusServiceUnavailable, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("onesignal failed"))
			}))
			defer server.Close()

			g, err := NewOneSignalGateway(server.URL, "app-1", "api-key-1", 0)
			if err != nil {
				t.Fatalf("NewOneSignalGateway() error = %v", err)
			}

			_, err = g.SendToAudience(context.Background(), Audience{City: "Ankara", BloodType: "A+"}, "title", "body", nil)
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var gwErr *GatewayError
			if !errors.As(err, &gwErr) {
				t.Fatalf("expected GatewayError, got %T", err)
			}
		})
	}
}

func TestOneSignalGatewayRejectsInvalidAudience(t *testing.T) {
	t.Parallel()

	g, err := NewOneSignalGateway("http://localhost:1", "app-1", "api-key-1", 0)
	if err != nil {
		t.Fatalf("NewOneSignalGateway() error = %v", err)
	}

	_, err = g.SendToAudience(context.Background(), Audience{City: "", BloodType: "A+"}, "title", "body", nil)
	if err == nil {
		t.Fatal("expected validation error for missing city")
	}
}

func TestNewOneSignalGatewayRequiresCredentials(t *testing.T) {
	t.Parallel()

	if _, err := NewOneSignalGateway("http://localhost:1", "", "api-key-1", 0); err == nil {
		t.Fatal("expected error for missing app id")
	}
	if _, err := NewOneSignalGateway("http://localhost:1", "app-1", "", 0); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
