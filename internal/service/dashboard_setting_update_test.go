package service

import (
	"testing"

	"github.com/loyaltycore/internal/constants"
)

func TestUpdateDashboardSettingNormalized(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	input := map[string]interface{}{
		"alert": map[string]interface{}{
			"pending_ambassadors_threshold": 999999,
			"pending_reviews_threshold":     -2,
			"refunded_orders_threshold":     "200001",
			"points_liability_threshold":    0,
		},
		"ranking": map[string]interface{}{
			"top_referrers_limit":   999,
			"top_ambassadors_limit": -1,
		},
	}

	result, err := svc.Update(constants.SettingKeyDashboardConfig, input)
	if err != nil {
		t.Fatalf("update dashboard config failed: %v", err)
	}

	alert, ok := result["alert"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid alert payload type: %T", result["alert"])
	}
	ranking, ok := result["ranking"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid ranking payload type: %T", result["ranking"])
	}

	assertSettingIntValue(t, alert, "pending_ambassadors_threshold", 10)
	assertSettingIntValue(t, alert, "pending_reviews_threshold", 20)
	assertSettingIntValue(t, alert, "refunded_orders_threshold", 10)
	assertSettingIntValue(t, alert, "points_liability_threshold", 1000000)
	assertSettingIntValue(t, ranking, "top_referrers_limit", 5)
	assertSettingIntValue(t, ranking, "top_ambassadors_limit", 5)
}

func TestUpdateDashboardSettingFallbackWhenMissing(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	result, err := svc.Update(constants.SettingKeyDashboardConfig, map[string]interface{}{})
	if err != nil {
		t.Fatalf("update dashboard config failed: %v", err)
	}

	alert, ok := result["alert"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid alert payload type: %T", result["alert"])
	}
	ranking, ok := result["ranking"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid ranking payload type: %T", result["ranking"])
	}

	assertSettingIntValue(t, alert, "pending_ambassadors_threshold", 10)
	assertSettingIntValue(t, alert, "pending_reviews_threshold", 20)
	assertSettingIntValue(t, alert, "refunded_orders_threshold", 10)
	assertSettingIntValue(t, alert, "points_liability_threshold", 1000000)
	assertSettingIntValue(t, ranking, "top_referrers_limit", 5)
	assertSettingIntValue(t, ranking, "top_ambassadors_limit", 5)
}

func TestUpdateDashboardSettingKeepsValidValues(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	result, err := svc.Update(constants.SettingKeyDashboardConfig, map[string]interface{}{
		"alert": map[string]interface{}{
			"pending_ambassadors_threshold": 3,
			"points_liability_threshold":    500000,
		},
		"ranking": map[string]interface{}{
			"top_referrers_limit": 10,
		},
	})
	if err != nil {
		t.Fatalf("update dashboard config failed: %v", err)
	}

	alert, ok := result["alert"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid alert payload type: %T", result["alert"])
	}
	ranking, ok := result["ranking"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid ranking payload type: %T", result["ranking"])
	}

	assertSettingIntValue(t, alert, "pending_ambassadors_threshold", 3)
	assertSettingIntValue(t, alert, "points_liability_threshold", 500000)
	assertSettingIntValue(t, ranking, "top_referrers_limit", 10)
	assertSettingIntValue(t, ranking, "top_ambassadors_limit", 5)
}

func assertSettingIntValue(t *testing.T, data map[string]interface{}, key string, expected int) {
	t.Helper()
	value, exists := data[key]
	if !exists {
		t.Fatalf("missing key %s", key)
	}
	parsed, err := parseSettingInt(value)
	if err != nil {
		t.Fatalf("parse key %s failed: %v", key, err)
	}
	if parsed != expected {
		t.Fatalf("unexpected value for %s, expected %d got %d", key, expected, parsed)
	}
}
