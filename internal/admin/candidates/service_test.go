package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/recruit-admin/internal/admin/backend"
	"finitefield.org/recruit-admin/internal/admin/optimistic"
)

func newHTTPService(t *testing.T, handler http.HandlerFunc) *HTTPService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := backend.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	svc, err := NewHTTPService(client)
	require.NoError(t, err)
	return svc
}

func TestHTTPServiceUpdateAttributeSendsSerialisedList(t *testing.T) {
	t.Parallel()

	var body map[string]string
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/candidate/1001", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"status":true,"message":"updated"}`)
	})

	err := svc.UpdateAttribute(context.Background(), "tok", 1001, AttributeExperience, []Experience{{Company: "ACME", Role: "Dev", Duration: "2y"}})
	require.NoError(t, err)
	require.JSONEq(t, `[{"company":"ACME","role":"Dev","duration":"2y"}]`, body["experience"])
}

func TestHTTPServiceUpdateAttributeEmptyList(t *testing.T) {
	t.Parallel()

	var body map[string]string
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"status":true}`)
	})

	var skills []string
	require.NoError(t, svc.UpdateAttribute(context.Background(), "", 1, AttributeSkills, skills))
	require.Equal(t, "[]", body["skills"])
}

func TestHTTPServiceUpdateAttributeRejectsUnknown(t *testing.T) {
	t.Parallel()

	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})
	err := svc.UpdateAttribute(context.Background(), "", 1, "salary", []string{})
	require.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestHTTPServiceUpdateAssignment(t *testing.T) {
	t.Parallel()

	var got AssignmentUpdate
	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidate/job-assignment/update", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":false,"message":"この求人は募集終了しています。"}`)
	})

	err := svc.UpdateAssignment(context.Background(), "", AssignmentUpdate{EntityID: 1001, SubID: 10, Field: "status", Value: "Interview"})
	require.Error(t, err)
	require.Equal(t, AssignmentUpdate{EntityID: 1001, SubID: 10, Field: "status", Value: "Interview"}, got)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "この求人は募集終了しています。", optimistic.FailureMessage(err))
}

func TestHTTPServiceGet(t *testing.T) {
	t.Parallel()

	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/candidate/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"status":true,"result":{"id":7,"name":"Aiko","skills":["Go"],"jobs":[{"job_id":10,"job_title":"BE","status":"Screening"}]}}`)
	})

	c, err := svc.Get(context.Background(), "", 7)
	require.NoError(t, err)
	require.Equal(t, []string{"Go"}, c.Skills)
	require.Equal(t, "Screening", c.Jobs[0].Status)

	_, err = svc.Get(context.Background(), "", 404)
	require.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestHTTPServiceListQuery(t *testing.T) {
	t.Parallel()

	svc := newHTTPService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/candidate", r.URL.Path)
		require.Equal(t, "go", r.URL.Query().Get("search"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"status":true,"result":{"candidates":[{"id":1,"name":"A"}],"total":21,"page":2,"size":20}}`)
	})

	res, err := svc.List(context.Background(), "", ListQuery{Search: " go ", Page: 2})
	require.NoError(t, err)
	require.Equal(t, 21, res.Total)
	require.Len(t, res.Candidates, 1)
}

func TestStaticServiceFailNextIsOneShot(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	svc.FailNext(AttributeSkills, "ロックされています。")

	err := svc.UpdateAttribute(context.Background(), "", 1001, AttributeSkills, []string{"Rust"})
	require.Error(t, err)
	require.Equal(t, "ロックされています。", optimistic.FailureMessage(err))

	c, err := svc.Get(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, c.Skills)

	require.NoError(t, svc.UpdateAttribute(context.Background(), "", 1001, AttributeSkills, []string{"Rust"}))
	c, err = svc.Get(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Equal(t, []string{"Rust"}, c.Skills)
	require.Equal(t, []string{AttributeSkills}, svc.Updates())
}

func TestStaticServiceUpdateAssignment(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	require.NoError(t, svc.UpdateAssignment(context.Background(), "", AssignmentUpdate{EntityID: 1001, SubID: 10, Field: "status", Value: "Interview"}))

	c, err := svc.Get(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Equal(t, "Interview", c.Jobs[0].Status)
	require.Equal(t, "Applied", c.Jobs[1].Status)

	err = svc.UpdateAssignment(context.Background(), "", AssignmentUpdate{EntityID: 1001, SubID: 99, Field: "status", Value: "Offer"})
	require.Error(t, err)
}

func TestStaticServiceGetReturnsCopy(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	c, err := svc.Get(context.Background(), "", 1001)
	require.NoError(t, err)
	c.Skills[0] = "mutated"

	again, err := svc.Get(context.Background(), "", 1001)
	require.NoError(t, err)
	require.Equal(t, "Go", again.Skills[0])
}

func TestStaticServiceListFilters(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	res, err := svc.List(context.Background(), "", ListQuery{Stage: "Interview"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, int64(1002), res.Candidates[0].ID)

	res, err = svc.List(context.Background(), "", ListQuery{Search: "aiko"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)

	_, err = svc.Get(context.Background(), "", 1)
	require.ErrorIs(t, err, ErrCandidateNotFound)
}
