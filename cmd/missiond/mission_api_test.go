package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops/missiond/internal/config"
)

type TestApp struct {
	*App
	srv *HttpServer
}

func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	usersFile := writeTestUsers(t, "u1", "u2")

	cfg := config.NewAppConfig()
	require.NoError(t, cfg.Set("db", ":memory:"))
	require.NoError(t, cfg.Set("users_file", usersFile))

	app := &TestApp{App: NewApp(cfg)}
	app.srv = NewHttp(app.App, "localhost:1234")

	return app
}

func writeTestUsers(t *testing.T, logins ...string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "users*.yml")
	require.NoError(t, err)

	for _, login := range logins {
		hash, err := bcrypt.GenerateFromPassword([]byte(login+"_pass"), bcrypt.MinCost)
		require.NoError(t, err)

		fmt.Fprintf(f, "- user: %s\n  password: %s\n", login, string(hash))
	}

	require.NoError(t, f.Close())

	return f.Name()
}

func (app *TestApp) Req(method, url, user string, obj any) (*http.Response, error) {
	var body io.Reader

	if obj != nil {
		d, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(d)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Add(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Add(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if user != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + user + "_pass"))
		req.Header.Add("Authorization", "Basic "+cred)
	}

	return app.srv.f.Test(req, 3000)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	m := make(map[string]any)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))

	return m
}

func missionBody(title string, lon, lat float64) fiber.Map {
	return fiber.Map{
		"title":       title,
		"description": "test mission",
		"location":    fiber.Map{"longitude": lon, "latitude": lat},
	}
}

func TestMissionApiAuth(t *testing.T) {
	app := NewTestApp(t)

	// acting on behalf of an owner needs credentials
	resp, err := app.Req("POST", "/api/mission/create", "", missionBody("m1", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/my", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Req("PUT", "/api/mission/someid", "", fiber.Map{"title": "x"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Req("PATCH", "/api/mission/someid/status", "", fiber.Map{"status": "active"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Req("DELETE", "/api/mission/someid", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMissionApiPublicReads(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody("m1", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	id := decode(t, resp)["data"].(map[string]any)["id"].(string)

	// list, get, nearby and stats work without credentials
	resp, err = app.Req("GET", "/api/mission/", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, decode(t, resp)["data"].([]any), 1)

	resp, err = app.Req("GET", "/api/mission/"+id, "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/nearby?longitude=121.0&latitude=14.5", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/stats", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMissionApiCRUD(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody("m1", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	m := decode(t, resp)
	require.Equal(t, true, m["success"])

	data := m["data"].(map[string]any)
	id := data["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "u1", data["ownerId"])
	require.Equal(t, "pending", data["status"])

	resp, err = app.Req("GET", "/api/mission/"+id, "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/nosuchmission", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Req("PUT", "/api/mission/"+id, "u1", fiber.Map{"title": "renamed"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m = decode(t, resp)
	require.Equal(t, "renamed", m["data"].(map[string]any)["title"])

	resp, err = app.Req("PUT", "/api/mission/"+id, "u2", fiber.Map{"title": "stolen"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Req("PUT", "/api/mission/"+id, "u1", fiber.Map{"title": "  "})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMissionApiCreateValidation(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1",
		fiber.Map{"title": "m1", "description": "d"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("POST", "/api/mission/create", "u1", missionBody("", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("POST", "/api/mission/create", "u1", missionBody("m1", 500.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMissionApiStatus(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody("m1", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	id := decode(t, resp)["data"].(map[string]any)["id"].(string)

	resp, err = app.Req("PATCH", "/api/mission/"+id+"/status", "u1", fiber.Map{"status": "active"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "active", decode(t, resp)["data"].(map[string]any)["status"])

	resp, err = app.Req("PATCH", "/api/mission/"+id+"/status", "u1", fiber.Map{"status": "pending"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("PATCH", "/api/mission/"+id+"/status", "u1", fiber.Map{"status": "bogus"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("PATCH", "/api/mission/"+id+"/status", "u2", fiber.Map{"status": "completed"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/"+id+"/changes", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMissionApiDelete(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody("m1", 121.0, 14.5))
	require.NoError(t, err)

	id := decode(t, resp)["data"].(map[string]any)["id"].(string)

	resp, err = app.Req("DELETE", "/api/mission/"+id, "u2", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Req("DELETE", "/api/mission/"+id, "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/"+id, "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Req("DELETE", "/api/mission/"+id, "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMissionApiList(t *testing.T) {
	app := NewTestApp(t)

	for i := 0; i < 5; i++ {
		resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody(fmt.Sprintf("m%d", i), 121.0, 14.5))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Req("POST", "/api/mission/create", "u2", missionBody("other", 121.0, 14.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/?pageSize=2&page=2", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := decode(t, resp)
	require.Len(t, m["data"].([]any), 2)

	p := m["pagination"].(map[string]any)
	require.EqualValues(t, 6, p["totalRecords"])
	require.EqualValues(t, 3, p["totalPages"])
	require.EqualValues(t, 2, p["currentPage"])
	require.Equal(t, true, p["hasNext"])
	require.Equal(t, true, p["hasPrev"])

	resp, err = app.Req("GET", "/api/mission/my", "u2", nil)
	require.NoError(t, err)

	m = decode(t, resp)
	require.Len(t, m["data"].([]any), 1)

	resp, err = app.Req("GET", "/api/mission/?status=bogus", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMissionApiNearby(t *testing.T) {
	app := NewTestApp(t)

	resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody("near", 121.05, 14.55))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Req("POST", "/api/mission/create", "u1", missionBody("far", 122.5, 15.5))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/nearby?longitude=121.0&latitude=14.5", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	m := decode(t, resp)
	data := m["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, "near", data[0].(map[string]any)["title"])

	resp, err = app.Req("GET", "/api/mission/nearby?latitude=14.5", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/nearby?longitude=121.0&latitude=14.5&maxDistance=-1", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// non-numeric params fail, they do not fall back to defaults
	resp, err = app.Req("GET", "/api/mission/nearby?longitude=121.0&latitude=14.5&maxDistance=abc", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/nearby?longitude=121.0&latitude=14.5&limit=abc", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMissionApiStats(t *testing.T) {
	app := NewTestApp(t)

	for i := 0; i < 2; i++ {
		resp, err := app.Req("POST", "/api/mission/create", "u1", missionBody(fmt.Sprintf("m%d", i), 121.0, 14.5))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Req("POST", "/api/mission/create", "u2", missionBody("other", 121.0, 14.5))
	require.NoError(t, err)

	id := decode(t, resp)["data"].(map[string]any)["id"].(string)

	resp, err = app.Req("PATCH", "/api/mission/"+id+"/status", "u2", fiber.Map{"status": "active"})
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Req("GET", "/api/mission/stats", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decode(t, resp)["data"].(map[string]any)
	require.EqualValues(t, 3, data["total"])
	require.EqualValues(t, 2, data["byStatus"].(map[string]any)["pending"])
	require.EqualValues(t, 1, data["byStatus"].(map[string]any)["active"])

	resp, err = app.Req("GET", "/api/mission/stats?userId=u2", "", nil)
	require.NoError(t, err)

	data = decode(t, resp)["data"].(map[string]any)
	require.EqualValues(t, 1, data["total"])

	resp, err = app.Req("GET", "/health", "", nil)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
