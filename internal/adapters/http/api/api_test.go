package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/crema/internal/adapters/catalog"
	"github.com/okian/crema/internal/adapters/http/api"
	"github.com/okian/crema/internal/adapters/statestore"
	advisor "github.com/okian/crema/internal/app"
	"github.com/okian/crema/pkg/logger"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()

	cat := catalog.NewMemory()
	svc := advisor.New(
		advisor.WithStore(statestore.NewMemoryStore()),
		advisor.WithMachineSource(cat),
		advisor.WithRunSource(cat),
		advisor.WithRand(rand.New(rand.NewSource(42))),
		advisor.WithClock(func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }),
		advisor.WithLogger(logger.Nop()),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}

	e := echo.New()
	api.NewServer(svc, cat, logger.Nop()).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const grinderJSON = `{
	"id": "gaggia",
	"name": "Gaggia Classic",
	"params": [
		{"id": "g", "name": "Grind", "kind": "range", "config": {"min": 0, "max": 10, "step": 1}},
		{"id": "notes", "kind": "text"}
	]
}`

func seedHistory(e *echo.Echo) {
	for _, run := range []struct {
		g      float64
		rating int
	}{
		{0, 2}, {2, 4}, {5, 7}, {8, 9}, {10, 6},
	} {
		body := fmt.Sprintf(`{"bean_id":"ethiopia","machine_id":"gaggia","values":{"g":%v},"rating":%d}`, run.g, run.rating)
		doJSON(e, http.MethodPost, "/v1/runs", body)
	}
}

func TestMachineAndRunIngestion(t *testing.T) {
	Convey("Given the advisor HTTP surface", t, func() {
		e := newTestServer(t)

		Convey("Registering a valid machine succeeds", func() {
			rec := doJSON(e, http.MethodPost, "/v1/machines", grinderJSON)
			So(rec.Code, ShouldEqual, http.StatusCreated)
		})

		Convey("Registering an invalid machine fails", func() {
			rec := doJSON(e, http.MethodPost, "/v1/machines",
				`{"id":"bad","params":[{"id":"g","kind":"range","config":{"min":5,"max":5,"step":1}}]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Recording a run against an unknown machine 404s", func() {
			rec := doJSON(e, http.MethodPost, "/v1/runs",
				`{"bean_id":"b","machine_id":"nope","values":{"g":5},"rating":7}`)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Recording a run with a bad rating 400s", func() {
			doJSON(e, http.MethodPost, "/v1/machines", grinderJSON)
			rec := doJSON(e, http.MethodPost, "/v1/runs",
				`{"bean_id":"b","machine_id":"gaggia","values":{"g":5},"rating":11}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestSuggestionAndStatusEndpoints(t *testing.T) {
	Convey("Given a seeded history", t, func() {
		e := newTestServer(t)
		doJSON(e, http.MethodPost, "/v1/machines", grinderJSON)
		seedHistory(e)

		Convey("The status endpoint reports readiness", func() {
			rec := doJSON(e, http.MethodGet, "/v1/beans/ethiopia/machines/gaggia/status", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var status api.StatusResponse
			So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
			So(status.Ready, ShouldBeTrue)
			So(status.Observations, ShouldEqual, 5)
			So(status.Threshold, ShouldEqual, 5)
		})

		Convey("The suggestion endpoint serves a decoded suggestion", func() {
			rec := doJSON(e, http.MethodGet, "/v1/beans/ethiopia/machines/gaggia/suggestion", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var sug advisor.Suggestion
			So(json.Unmarshal(rec.Body.Bytes(), &sug), ShouldBeNil)
			So(sug.Rating, ShouldEqual, "unrated")
			So(sug.Suggested, ShouldBeTrue)
			So(sug.Parameters["g"].Number, ShouldBeBetweenOrEqual, 0, 10)
			So(sug.ExpectedRating, ShouldBeBetweenOrEqual, 1, 10)
		})

		Convey("A pair without data 404s on suggestion", func() {
			rec := doJSON(e, http.MethodGet, "/v1/beans/nobody/machines/gaggia/suggestion", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The curve endpoint returns the requested sample count", func() {
			rec := doJSON(e, http.MethodPost, "/v1/beans/ethiopia/machines/gaggia/curve",
				`{"param_index":0,"num_points":11}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var curve advisor.Curve
			So(json.Unmarshal(rec.Body.Bytes(), &curve), ShouldBeNil)
			So(curve.ParamID, ShouldEqual, "g")
			So(curve.Ratings, ShouldHaveLength, 11)
		})

		Convey("An out-of-range curve index 400s", func() {
			rec := doJSON(e, http.MethodPost, "/v1/beans/ethiopia/machines/gaggia/curve",
				`{"param_index":5}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Re-registering the machine invalidates the state", func() {
			doJSON(e, http.MethodPost, "/v1/machines", grinderJSON)
			rec := doJSON(e, http.MethodGet, "/v1/beans/ethiopia/machines/gaggia/status", "")

			var status api.StatusResponse
			So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
			So(status.Observations, ShouldEqual, 0)
		})

		Convey("Clearing the pair drops the observations", func() {
			rec := doJSON(e, http.MethodDelete, "/v1/beans/ethiopia/machines/gaggia/optimizer", "")
			So(rec.Code, ShouldEqual, http.StatusNoContent)

			rec = doJSON(e, http.MethodGet, "/v1/beans/ethiopia/machines/gaggia/status", "")
			var status api.StatusResponse
			So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
			So(status.Observations, ShouldEqual, 0)
		})
	})
}

func TestRunDeletionRebuilds(t *testing.T) {
	Convey("Given a seeded history", t, func() {
		e := newTestServer(t)
		doJSON(e, http.MethodPost, "/v1/machines", grinderJSON)

		var lastRunID string
		for _, run := range []struct {
			g      float64
			rating int
		}{
			{0, 2}, {2, 4}, {5, 7}, {8, 9}, {10, 6},
		} {
			body := fmt.Sprintf(`{"bean_id":"ethiopia","machine_id":"gaggia","values":{"g":%v},"rating":%d}`, run.g, run.rating)
			rec := doJSON(e, http.MethodPost, "/v1/runs", body)
			var created struct {
				ID string `json:"id"`
			}
			So(json.Unmarshal(rec.Body.Bytes(), &created), ShouldBeNil)
			lastRunID = created.ID
		}

		Convey("Deleting the last rated run rebuilds with four observations", func() {
			rec := doJSON(e, http.MethodDelete, "/v1/runs/"+lastRunID, "")
			So(rec.Code, ShouldEqual, http.StatusNoContent)

			rec = doJSON(e, http.MethodGet, "/v1/beans/ethiopia/machines/gaggia/status", "")
			var status api.StatusResponse
			So(json.Unmarshal(rec.Body.Bytes(), &status), ShouldBeNil)
			So(status.Observations, ShouldEqual, 4)
			So(status.Ready, ShouldBeFalse)
		})

		Convey("Deleting an unknown run 404s", func() {
			rec := doJSON(e, http.MethodDelete, "/v1/runs/ghost", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestConfigEndpoints(t *testing.T) {
	Convey("Given the advisor HTTP surface", t, func() {
		e := newTestServer(t)

		Convey("GET /v1/config returns the defaults", func() {
			rec := doJSON(e, http.MethodGet, "/v1/config", "")
			So(rec.Code, ShouldEqual, http.StatusOK)

			var cfg advisor.Config
			So(json.Unmarshal(rec.Body.Bytes(), &cfg), ShouldBeNil)
			So(cfg.NumCandidates, ShouldEqual, 100)
		})

		Convey("PATCH /v1/config merges a partial update", func() {
			rec := doJSON(e, http.MethodPatch, "/v1/config", `{"numCandidates":50}`)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var cfg advisor.Config
			So(json.Unmarshal(rec.Body.Bytes(), &cfg), ShouldBeNil)
			So(cfg.NumCandidates, ShouldEqual, 50)
			So(cfg.MinRunsThreshold, ShouldEqual, 5)
		})

		Convey("PATCH /v1/config rejects invalid values", func() {
			rec := doJSON(e, http.MethodPatch, "/v1/config", `{"numCandidates":0}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealth(t *testing.T) {
	Convey("The health endpoint responds", t, func() {
		e := newTestServer(t)
		rec := doJSON(e, http.MethodGet, "/healthz", "")
		So(rec.Code, ShouldEqual, http.StatusOK)
	})
}
