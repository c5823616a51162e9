package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadbio-cli/internal/batch"
	"github.com/sells-group/leadbio-cli/internal/config"
	"github.com/sells-group/leadbio-cli/internal/model"
)

type mockLeadRunner struct {
	mock.Mock
}

func (m *mockLeadRunner) Run(ctx context.Context, lead model.Lead) model.LeadResult {
	args := m.Called(ctx, lead)
	return args.Get(0).(model.LeadResult)
}

// echoRunner succeeds for every lead except company "Fail".
type echoRunner struct{}

func (echoRunner) Run(_ context.Context, lead model.Lead) model.LeadResult {
	if lead.Company == "Fail" {
		return model.FailedResult(lead, "no profile candidate")
	}
	return model.LeadResult{Name: lead.FullName(), Company: lead.Company, Bio: "bio for " + lead.FullName()}
}

func testRouter(t *testing.T, leads leadRunner) http.Handler {
	t.Helper()
	proc := batch.NewProcessor(echoRunner{}, batch.WithReportDir(t.TempDir()))
	return buildRouter(leads, proc, config.ServerConfig{CORSOrigins: []string{"*"}, MaxUploadMB: 1})
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate_batch_bio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestGenerateBio_Success(t *testing.T) {
	runner := &mockLeadRunner{}
	lead := model.Lead{FirstName: "Jane", LastName: "Doe", Company: "Acme"}
	runner.On("Run", mock.Anything, lead).Return(model.LeadResult{
		Name: "Jane Doe", Company: "Acme", Bio: "Jane builds rockets.", Email: "jane@acme.com", Phone: "+16502530000",
	})
	h := testRouter(t, runner)

	rr := postJSON(t, h, "/generate_bio", `{"first":" Jane ","last":"Doe","company":"Acme"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Output model.LeadResult `json:"output"`
	}
	decodeBody(t, rr, &body)
	assert.Equal(t, "Jane builds rockets.", body.Output.Bio)
	assert.Equal(t, "+16502530000", body.Output.Phone)
	runner.AssertExpectations(t)
}

func TestGenerateBio_PipelineFailure(t *testing.T) {
	runner := &mockLeadRunner{}
	lead := model.Lead{FirstName: "Jane", LastName: "Doe", Company: "Acme"}
	runner.On("Run", mock.Anything, lead).Return(model.FailedResult(lead, "no profile candidate"))
	h := testRouter(t, runner)

	rr := postJSON(t, h, "/generate_bio", `{"first":"Jane","last":"Doe","company":"Acme"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var body map[string]string
	decodeBody(t, rr, &body)
	assert.Equal(t, "no profile candidate", body["error"])
	assert.Equal(t, "Jane Doe", body["name"])
	assert.Equal(t, "Acme", body["company"])
}

func TestGenerateBio_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"invalid json", "not json", "invalid request body"},
		{"empty object", "{}", "first is required; company is required"},
		{"blank company", `{"first":"Jane","company":"   "}`, "company is required"},
		{"too long", `{"first":"` + strings.Repeat("x", 101) + `","company":"Acme"}`, "first must be at most 100 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockLeadRunner{}
			h := testRouter(t, runner)

			rr := postJSON(t, h, "/generate_bio", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body map[string]string
			decodeBody(t, rr, &body)
			assert.Equal(t, tt.wantMsg, body["error"])
			runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerateBio_MethodNotAllowed(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate_bio", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestGenerateBatchBio_CSV(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})
	csv := "Jane Doe,Acme\nonly-one-cell\nJohn Smith,Fail\n"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "file", "leads.csv", []byte(csv)))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res batch.Result
	decodeBody(t, rr, &res)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "bio for Jane Doe", res.Results[0].Bio)
	assert.Equal(t, "no profile candidate", res.Results[1].Error)
	assert.Equal(t, 1, res.SkippedCount)
	assert.FileExists(t, res.ReportPath)
}

func TestGenerateBatchBio_BadUploads(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  string
		wantMsg  string
	}{
		{"missing file field", "upload", "leads.csv", "Jane Doe,Acme\n", "file is required"},
		{"unsupported type", "file", "leads.pdf", "%PDF", "unsupported file type"},
		{"empty file", "file", "leads.csv", "", "no rows"},
		{"bad layout", "file", "leads.csv", "a,b,c,d\nJane,Doe,Acme,x\n", "first row has 4 columns, want 2 or 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testRouter(t, &mockLeadRunner{})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, uploadRequest(t, tt.field, tt.filename, []byte(tt.content)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var body map[string]string
			decodeBody(t, rr, &body)
			assert.Contains(t, body["error"], tt.wantMsg)
		})
	}
}

func TestGenerateBatchBio_NotMultipart(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})
	rr := postJSON(t, h, "/generate_batch_bio", `{"file":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid upload")
}

func TestGenerateBatchBio_TooLarge(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})
	big := bytes.Repeat([]byte("Jane Doe,Acme\n"), (2<<20)/14)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "file", "leads.csv", big))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCORS(t *testing.T) {
	h := testRouter(t, &mockLeadRunner{})

	req := httptest.NewRequest(http.MethodOptions, "/generate_bio", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidationMessage_NonValidatorError(t *testing.T) {
	assert.Equal(t, assert.AnError.Error(), validationMessage(assert.AnError))
}
