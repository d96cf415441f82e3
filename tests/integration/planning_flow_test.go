package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestPlanningFlow_ExecuteDueMaterializesAndAdvances(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "planning@test.com", "password123")
	accountID := createAccount(t, app, token, "Giro")

	// Monthly rent, exactly two occurrences, both long overdue.
	rec := app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"amount":-2500,"start_date":"2024-01-15","pattern":"monthly","end_type":"count","recurrence_count":2,"note":"Rent"}`,
			accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("planning creation failed: %d %s", rec.Code, rec.Body.String())
	}
	planning := parseJSON(t, rec)["planning"].(map[string]interface{})
	planningID := planning["id"].(string)

	rec = app.request("POST", "/api/v1/plannings/execute-due", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("execute-due failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := parseJSON(t, rec)["executed"].(float64); got != 2 {
		t.Fatalf("expected 2 executed, got %.0f", got)
	}

	// Both occurrences landed on the ledger with provenance.
	rec = app.request("GET", "/api/v1/transactions", "", token)
	rows := parseJSON(t, rec)["data"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 materialized transactions, got %d", len(rows))
	}
	for _, item := range rows {
		tx := item.(map[string]interface{})
		if tx["amount"].(float64) != -2500 {
			t.Errorf("expected -2500, got %v", tx["amount"])
		}
		if tx["planning_id"] != planningID {
			t.Errorf("expected planning provenance, got %v", tx["planning_id"])
		}
	}
	if got := accountBalance(t, app, token, accountID); got != -5000 {
		t.Errorf("expected account balance -5000, got %.0f", got)
	}

	// The exhausted template was deactivated.
	rec = app.request("GET", "/api/v1/plannings/"+planningID, "", token)
	reloaded := parseJSON(t, rec)["planning"].(map[string]interface{})
	if reloaded["is_active"] != false {
		t.Error("expected template deactivated after its last occurrence")
	}
	if reloaded["recurrence_count"].(float64) != 0 {
		t.Errorf("expected 0 remaining occurrences, got %v", reloaded["recurrence_count"])
	}

	// Re-running finds nothing due.
	rec = app.request("POST", "/api/v1/plannings/execute-due", "", token)
	if got := parseJSON(t, rec)["executed"].(float64); got != 0 {
		t.Errorf("expected idempotent rerun, got %.0f executed", got)
	}
}

func TestPlanningFlow_TransferTemplate(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "autotransfer@test.com", "password123")
	giroID := createAccount(t, app, token, "Giro")
	savingsID := createAccount(t, app, token, "Savings")

	rec := app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"to_account_id":%q,"amount":-7500,"start_date":"2024-01-01","pattern":"once","note":"Savings rate"}`,
			giroID, savingsID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("planning creation failed: %d %s", rec.Code, rec.Body.String())
	}
	planningID := parseJSON(t, rec)["planning"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/plannings/execute-due", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("execute-due failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := parseJSON(t, rec)["executed"].(float64); got != 1 {
		t.Fatalf("expected 1 executed, got %.0f", got)
	}

	// The template materialized as a linked transfer pair.
	if got := accountBalance(t, app, token, giroID); got != -7500 {
		t.Errorf("expected Giro -7500, got %.0f", got)
	}
	if got := accountBalance(t, app, token, savingsID); got != 7500 {
		t.Errorf("expected Savings 7500, got %.0f", got)
	}

	rec = app.request("GET", "/api/v1/transactions?type=transfer", "", token)
	rows := parseJSON(t, rec)["data"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected both transfer legs on the ledger, got %d", len(rows))
	}
	for _, item := range rows {
		tx := item.(map[string]interface{})
		if tx["planning_id"] != planningID {
			t.Errorf("expected both legs to carry the template reference, got %v", tx["planning_id"])
		}
	}
}

func TestPlanningFlow_ForecastOnlyAdvancesWithoutBooking(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "forecast@test.com", "password123")
	accountID := createAccount(t, app, token, "Giro")

	rec := app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"amount":-1000,"start_date":"2024-01-01","pattern":"once","forecast_only":true}`,
			accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("planning creation failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/plannings/execute-due", "", token)
	if got := parseJSON(t, rec)["executed"].(float64); got != 0 {
		t.Errorf("expected forecast template to book nothing, got %.0f", got)
	}
	if got := accountBalance(t, app, token, accountID); got != 0 {
		t.Errorf("expected untouched balance, got %.0f", got)
	}
}

func TestPlanningFlow_RulesShapeMaterializedTransactions(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "rules@test.com", "password123")
	accountID := createAccount(t, app, token, "Giro")
	housingID := createCategory(t, app, token, "Housing", false)

	rec := app.request("POST", "/api/v1/rules",
		fmt.Sprintf(`{"name":"Rent to Housing","match_note":"rent","set_category_id":%q,"is_active":true}`,
			housingID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("rule creation failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"amount":-90000,"start_date":"2024-01-03","pattern":"once","note":"Monthly rent"}`,
			accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("planning creation failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/plannings/execute-due", "", token)
	if got := parseJSON(t, rec)["executed"].(float64); got != 1 {
		t.Fatalf("expected 1 executed, got %.0f", got)
	}

	rec = app.request("GET", "/api/v1/transactions", "", token)
	tx := parseJSON(t, rec)["data"].([]interface{})[0].(map[string]interface{})
	if tx["category_id"] != housingID {
		t.Errorf("expected the rule to categorize the materialized transaction, got %v", tx["category_id"])
	}
	if got := categoryBalance(t, app, token, "Housing"); got != -90000 {
		t.Errorf("expected Housing envelope -90000, got %.0f", got)
	}
}

func TestPlanningFlow_PreviewDoesNotTouchTheLedger(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "preview@test.com", "password123")
	accountID := createAccount(t, app, token, "Giro")

	rec := app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"amount":-2500,"start_date":"2030-01-15","pattern":"monthly"}`,
			accountID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("planning creation failed: %d %s", rec.Code, rec.Body.String())
	}
	planningID := parseJSON(t, rec)["planning"].(map[string]interface{})["id"].(string)

	rec = app.request("GET",
		"/api/v1/plannings/"+planningID+"/occurrences?from=2030-01-01&to=2030-03-31", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview failed: %d %s", rec.Code, rec.Body.String())
	}
	occurrences := parseJSON(t, rec)["occurrences"].([]interface{})
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %v", occurrences)
	}
	if occurrences[0] != "2030-01-15" || occurrences[2] != "2030-03-15" {
		t.Errorf("expected monthly dates, got %v", occurrences)
	}

	rec = app.request("GET", "/api/v1/transactions", "", token)
	if rows := parseJSON(t, rec)["data"].([]interface{}); len(rows) != 0 {
		t.Errorf("expected an untouched ledger, got %d rows", len(rows))
	}
}

func TestPlanningFlow_DeleteKeepsMaterializedTransactions(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "keep@test.com", "password123")
	accountID := createAccount(t, app, token, "Giro")

	rec := app.request("POST", "/api/v1/plannings",
		fmt.Sprintf(`{"account_id":%q,"amount":-2500,"start_date":"2024-01-15","pattern":"once"}`,
			accountID), token)
	planningID := parseJSON(t, rec)["planning"].(map[string]interface{})["id"].(string)

	app.request("POST", "/api/v1/plannings/execute-due", "", token)

	rec = app.request("DELETE", "/api/v1/plannings/"+planningID, "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/transactions", "", token)
	if rows := parseJSON(t, rec)["data"].([]interface{}); len(rows) != 1 {
		t.Errorf("expected the materialized transaction to survive, got %d rows", len(rows))
	}
}
