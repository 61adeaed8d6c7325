package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/faculty"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	testutil "github.com/trezcool/academia/tests"
)

var (
	secret   = []byte("secret")
	audience = "Academia"

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errUnauthed     = httpErr{Error: core.ErrUnauthenticated.Error()}
	errForbidden    = httpErr{Error: core.ErrForbidden.Error()}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type dispatched struct {
	mu   sync.Mutex
	msgs []*core.EmailMessage
}

func (d *dispatched) Dispatch(kind string, msgs ...*core.EmailMessage) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msgs...)
	return true
}

type env struct {
	app         Server
	users       user.Repository
	assessments assessment.Repository
	submissions submission.Repository
	dispatcher  *dispatched
}

func setup(t *testing.T, svc ...FacultyService) *env {
	t.Helper()
	db := inmemdb.Open()
	e := &env{
		users:       inmemdb.NewUserRepository(db),
		assessments: inmemdb.NewAssessmentRepository(db),
		submissions: inmemdb.NewSubmissionRepository(db),
		dispatcher:  new(dispatched),
	}
	validate, translator := testutil.NewValidator()

	var facultySvc FacultyService
	if len(svc) > 0 {
		facultySvc = svc[0]
	} else {
		fsvc, err := faculty.NewService(faculty.Options{
			Assessments: e.assessments,
			Sessions:    inmemdb.NewRemedialRepository(db),
			Submissions: e.submissions,
			Users:       e.users,
			Dispatcher:  e.dispatcher,
			Validate:    validate,
			Logger:      testutil.NopLogger{},
		})
		require.NoError(t, err)
		facultySvc = fsvc
	}

	app, err := NewServer(&Options{
		DisableReqLogs: true,
		AllowedOrigins: []string{"http://localhost:5173"},
		JWTSecret:      secret,
		JWTAudience:    audience,
		FacultySvc:     facultySvc,
		Translator:     translator,
		Logger:         testutil.NopLogger{},
	})
	require.NoError(t, err)
	e.app = app
	return e
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, p user.Principal, ttl ...time.Duration) string {
	t.Helper()
	exp := time.Hour
	if len(ttl) > 0 {
		exp = ttl[0]
	}
	token, err := GenerateToken(secret, NewClaims(p, "academia-test", audience, exp))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decode is used when the response holds server generated values.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
