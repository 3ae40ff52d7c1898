package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applogger "SeriesPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryReq struct {
	Steps int  `query:"steps" default:"7" validate:"gte=1,lte=365"`
	AI    bool `query:"ai"`
}

type bodyReq struct {
	Name  string `json:"name" validate:"required"`
	Steps int    `json:"steps" default:"3"`
}

func TestReadAndValidateQuery(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/x?ai=true", strings.NewReader("date,value\n"))
	c := e.NewContext(req, httptest.NewRecorder())
	var q queryReq
	require.Nil(t, ReadAndValidateQuery(c, &q))
	assert.Equal(t, 7, q.Steps)
	assert.True(t, q.AI)

	req = httptest.NewRequest(http.MethodPost, "/x?steps=999", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	q = queryReq{}
	errs := ReadAndValidateQuery(c, &q)
	require.NotNil(t, errs)
	list := errs.([]ValidationError)
	require.Len(t, list, 1)
	assert.Equal(t, "ERR_LTE", list[0].Code)
	assert.Equal(t, "Steps", list[0].Field)
	assert.Equal(t, "Steps must be less than or equal to 365", list[0].Message)
	assert.Equal(t, map[string]interface{}{"max": "365"}, list[0].Params)
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"a"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	var b bodyReq
	require.Nil(t, ReadAndValidateRequest(c, &b))
	assert.Equal(t, 3, b.Steps)

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())
	b = bodyReq{}
	errs := ReadAndValidateRequest(c, &b).([]ValidationError)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "Name is required", errs[0].Message)

	assert.Empty(t, ValidateStruct(context.Background(), &bodyReq{Name: "ok"}))
}

func TestAppErrorResponseStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	appErr := CollaboratorError("openai", errors.New("timeout"))
	require.NoError(t, AppErrorResponse(c, appErr))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Status int         `json:"status"`
		Data   []*AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadGateway, body.Status)
	assert.Equal(t, "ERR_COLLABORATOR", body.Data[0].Code)
	assert.Equal(t, "openai", body.Data[0].Params["collaborator"])
	assert.ErrorContains(t, appErr, "timeout")
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/busy" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("try later"))
			return
		}
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient()
	var out struct{ OK bool }
	require.NoError(t, c.SendAndParse(context.Background(), &RequestOptions{
		Method: MethodPost, URL: srv.URL + "/ok", Body: map[string]int{"a": 1},
	}, &out))
	assert.True(t, out.OK)

	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/busy"}, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 503, se.Code)
	assert.Equal(t, "try later", se.Body)
	assert.True(t, IsRetryable(err))

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/bad"}, nil)
	assert.False(t, IsRetryable(err))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestServerHealthAndRequestID(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(nil, applogger.NewNop(), reg, reg)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer(handlerFunc(func(e *echo.Echo) {
		e.GET("/boom", func(echo.Context) error { panic("boom") })
	}), applogger.NewNop(), nil, nil)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type handlerFunc func(e *echo.Echo)

func (f handlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }
