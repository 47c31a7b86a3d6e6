package quickbooks

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClient(server *httptest.Server) *Client {
	t := NewTransport(server.URL, "12345", "test-token")
	t.HTTPClient = server.Client()
	return &Client{
		Transport:      t,
		TimeActivities: &TimeActivityEndpoint{transport: t},
		Query:          &QueryEndpoint{transport: t},
	}
}

func TestTransportAuthAndURL(t *testing.T) {
	var gotPath, gotAuth, gotMinor string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMinor = r.URL.Query().Get("minorversion")
		w.Write([]byte(`{"TimeActivity":{"Id":"77","SyncToken":"0"}}`))
	}))
	defer server.Close()

	client := testClient(server)
	ta, err := client.TimeActivities.Create(&TimeActivity{TxnDate: "2026-02-03", NameOf: "Employee"})

	assert.NoError(t, err)
	assert.Equal(t, "/v3/company/12345/timeactivity", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, minorVersion, gotMinor)
	assert.Equal(t, "77", ta.ID)
	assert.Equal(t, "0", ta.SyncToken)
}

func TestTransportRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(server)
	_, err := client.TimeActivities.Create(&TimeActivity{TxnDate: "2026-02-03"})

	var rl *RateLimitError
	assert.ErrorAs(t, err, &rl)
	assert.Equal(t, 60, rl.RetryAfterSeconds)
}

func TestTransportFaultBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"Fault":{"type":"ValidationFault","Error":[{"Message":"Stale Object Error","Detail":"SyncToken mismatch","code":"5010"}]}}`))
	}))
	defer server.Close()

	client := testClient(server)
	_, err := client.TimeActivities.Update(&TimeActivity{ID: "77", SyncToken: "0", TxnDate: "2026-02-03"})

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "5010", apiErr.Fault.Errors[0].Code)
	assert.Contains(t, apiErr.Error(), "Stale Object Error")
}

func TestTransportEmptyBodySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server)
	err := client.TimeActivities.Delete("77", "1")
	assert.NoError(t, err)
}

func TestTimeActivityGuards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()
	client := testClient(server)

	_, err := client.TimeActivities.Create(&TimeActivity{ID: "77"})
	assert.Error(t, err)

	_, err = client.TimeActivities.Update(&TimeActivity{ID: "77"})
	assert.Error(t, err)

	assert.Error(t, client.TimeActivities.Delete("77", ""))
}

func TestQueryPaging(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v3/company/12345/query", r.URL.Path)
		query := r.URL.Query().Get("query")
		if calls == 1 {
			assert.Contains(t, query, "STARTPOSITION 1")
			// a full page forces a second fetch
			w.Write(fullEmployeePage())
			return
		}
		assert.Contains(t, query, "STARTPOSITION 1001")
		w.Write([]byte(`{"QueryResponse":{"Employee":[{"Id":"9999","DisplayName":"Last Worker","Active":true}]}}`))
	}))
	defer server.Close()

	client := testClient(server)
	employees, err := client.Query.Employees()

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, employees, QueryPageSize+1)
	assert.Equal(t, "Last Worker", employees[QueryPageSize].DisplayName)
}

func TestQueryEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"QueryResponse":{}}`))
	}))
	defer server.Close()

	client := testClient(server)
	classes, err := client.Query.Classes()
	assert.NoError(t, err)
	assert.Empty(t, classes)
}

func fullEmployeePage() []byte {
	page := []byte(`{"QueryResponse":{"Employee":[`)
	for i := 0; i < QueryPageSize; i++ {
		if i > 0 {
			page = append(page, ',')
		}
		page = append(page, []byte(`{"Id":"e","DisplayName":"W","Active":true}`)...)
	}
	page = append(page, []byte(`]}}`)...)
	return page
}
