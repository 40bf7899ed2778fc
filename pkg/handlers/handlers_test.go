package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/config"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/logger"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	h      *Handler
	router *gin.Engine
	key    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Options{DataPath: "file::memory:"})
	require.NoError(t, err)

	a := auth.New("jwt-secret", "master-secret")
	a.BcryptCost = 4
	_, err = a.EnsureAdminExists(db, "admin", "admin123")
	require.NoError(t, err)

	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	h := New(db, a, cfg)
	h.Log = logger.Discard()
	r := gin.New()
	h.Register(r)

	return &testServer{t: t, h: h, router: r, key: a.GenerateHMACKey("store-1")}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(token, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("employees_file", filename)
	require.NoError(s.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(s.t, err)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/roster/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "admin123"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.AccessToken
}

func mondayRequest() models.RosterRequest {
	seed := int64(7)
	return models.RosterRequest{
		Employees: []models.EmployeeInput{
			{Name: "Ann", Preferences: map[string]string{"monday": "Morning (8-12)"}},
			{Name: "Ben", Preferences: map[string]string{"Monday": "afternoon"}},
			{Name: "Cat", Ranked: map[string][]string{"Monday": {"evening", "morning"}}},
		},
		Days:     []string{"Monday"},
		Capacity: intPtr(1),
		Seed:     &seed,
	}
}

func intPtr(n int) *int { return &n }

func TestAPIKeyMiddleware(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should reject a missing key", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/roster", "", mondayRequest())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should reject a forged key", func(t *testing.T) {
		forged := auth.New("jwt-secret", "other").GenerateHMACKey("store-1")
		w := s.do(http.MethodPost, "/api/roster", forged, mondayRequest())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should enforce the daily request limit", func(t *testing.T) {
		key := s.h.Auth.GenerateHMACKey("limited")
		require.NoError(t, s.h.DB.Create(&database.APIKey{Key: key, Name: "limited", RateLimit: 1}).Error)

		w := s.do(http.MethodPost, "/api/roster", key, mondayRequest())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = s.do(http.MethodPost, "/api/roster", key, mondayRequest())
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("Should not count failed builds against the limit", func(t *testing.T) {
		key := s.h.Auth.GenerateHMACKey("careless")
		require.NoError(t, s.h.DB.Create(&database.APIKey{Key: key, Name: "careless", RateLimit: 1}).Error)

		bad := mondayRequest()
		bad.Capacity = intPtr(0)
		for i := 0; i < 3; i++ {
			w := s.do(http.MethodPost, "/api/roster", key, bad)
			require.Equal(t, http.StatusBadRequest, w.Code)
		}
		w := s.do(http.MethodPost, "/api/roster", key, mondayRequest())
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestRosterJSON(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should place every employee on their preferred shift", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/roster", s.key, mondayRequest())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res models.RosterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Grid, 1)
		assert.NotEmpty(t, res.RunID)
		assert.Equal(t, models.Monday, res.Grid[0].Day)
		assert.Equal(t, []string{"Ann"}, res.Grid[0].Slots[models.Morning])
		assert.Equal(t, []string{"Ben"}, res.Grid[0].Slots[models.Afternoon])
		assert.Equal(t, []string{"Cat"}, res.Grid[0].Slots[models.Evening])
		assert.Equal(t, 3, res.Stats.Preferred)
		assert.Empty(t, res.Underfilled)
	})

	t.Run("Should reject duplicate names with 422", func(t *testing.T) {
		req := mondayRequest()
		req.Employees = append(req.Employees, models.EmployeeInput{Name: "Ann"})
		w := s.do(http.MethodPost, "/api/roster", s.key, req)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Should reject a bad capacity with 400", func(t *testing.T) {
		for _, capacity := range []int{-1, 0} {
			req := mondayRequest()
			req.Capacity = intPtr(capacity)
			w := s.do(http.MethodPost, "/api/roster", s.key, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, "capacity %d", capacity)
			assert.Contains(t, w.Body.String(), "capacity")
		}
	})

	t.Run("Should reject a day named twice with 400", func(t *testing.T) {
		req := mondayRequest()
		req.Employees[0].Preferences = map[string]string{"Monday": "morning", "monday": "evening"}
		for i := 0; i < 20; i++ {
			w := s.do(http.MethodPost, "/api/roster", s.key, req)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `row 1: preferences: day Monday given twice`)
		}

		req = mondayRequest()
		req.Employees[2].Ranked = map[string][]string{"Monday": {"evening"}, " MONDAY ": {"morning"}}
		w := s.do(http.MethodPost, "/api/roster", s.key, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "row 3: ranked")
	})

	t.Run("Should reject a blank name with 400", func(t *testing.T) {
		req := mondayRequest()
		req.Employees[1].Name = "  "
		w := s.do(http.MethodPost, "/api/roster", s.key, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should record usage for the key", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/usage", s.key, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			KeyName string `json:"key_name"`
			Totals  struct {
				Requests  int `json:"requests"`
				Employees int `json:"employees"`
				Slots     int `json:"slots"`
			} `json:"totals"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "store-1", body.KeyName)
		assert.Equal(t, 1, body.Totals.Requests)
		assert.Equal(t, 3, body.Totals.Employees)
		assert.Equal(t, 3, body.Totals.Slots)
	})
}

func TestRosterJSON_DefaultCapacity(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should use the configured capacity when none is given", func(t *testing.T) {
		req := mondayRequest()
		req.Capacity = nil
		req.Employees = req.Employees[:1]
		w := s.do(http.MethodPost, "/api/roster", s.key, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res models.RosterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, s.h.Config.Capacity, res.Capacity)
	})
}

func TestRosterFile(t *testing.T) {
	s := newTestServer(t)
	const upload = "name,Monday\nAnn,morning\nBen,Afternoon shift\nCat,evening\n"

	t.Run("Should return CSV when asked", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", upload, map[string]string{
			"format":   "csv",
			"days":     "Monday",
			"capacity": "1",
			"seed":     "3",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "Day,Morning,Afternoon,Evening", lines[0])
		assert.Equal(t, "Monday,Ann,Ben,Cat", lines[1])
	})

	t.Run("Should return a PDF attachment", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", upload, map[string]string{"format": "pdf", "days": "Monday"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("Should reject an explicit zero capacity", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", upload, map[string]string{"capacity": "0", "days": "Monday"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "capacity")
	})

	t.Run("Should reject an unknown format", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", upload, map[string]string{"format": "docx"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should reject a file without a name column", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", "who,Monday\nAnn,morning\n", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should reject duplicate rows with 422", func(t *testing.T) {
		w := s.upload(s.key, "staff.csv", "name,Monday\nAnn,morning\nAnn,evening\n", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestLatestRoster(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should 404 before any build", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/roster/latest", s.key, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Should return the last build for the same owner only", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/roster", s.key, mondayRequest())
		require.Equal(t, http.StatusOK, w.Code)
		var built models.RosterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &built))

		w = s.do(http.MethodGet, "/api/roster/latest", s.key, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var latest models.RosterResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
		assert.Equal(t, built.RunID, latest.RunID)

		w = s.do(http.MethodGet, "/api/roster/latest/pdf", s.key, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

		other := s.h.Auth.GenerateHMACKey("store-2")
		w = s.do(http.MethodGet, "/api/roster/latest", other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestValidateInput(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should report stats for a valid request", func(t *testing.T) {
		req := mondayRequest()
		req.Employees[0].Preferences["monday"] = "night"
		w := s.do(http.MethodPost, "/api/validate", s.key, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Valid bool `json:"valid"`
			Stats struct {
				EmployeeCount int `json:"employee_count"`
				SlotCount     int `json:"slot_count"`
				Unrecognized  int `json:"unrecognized_preferences"`
			} `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Valid)
		assert.Equal(t, 3, body.Stats.EmployeeCount)
		assert.Equal(t, 3, body.Stats.SlotCount)
		assert.Equal(t, 1, body.Stats.Unrecognized)
	})

	t.Run("Should flag duplicate names", func(t *testing.T) {
		req := mondayRequest()
		req.Employees[2].Name = "Ann"
		w := s.do(http.MethodPost, "/api/validate", s.key, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
		assert.Contains(t, w.Body.String(), "Duplicate employee name: Ann")
	})

	t.Run("Should flag a zero capacity", func(t *testing.T) {
		req := mondayRequest()
		req.Capacity = intPtr(0)
		w := s.do(http.MethodPost, "/api/validate", s.key, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
		assert.Contains(t, w.Body.String(), "capacity must be at least 1, got 0")
	})

	t.Run("Should flag a day named twice", func(t *testing.T) {
		req := mondayRequest()
		req.Employees[1].Preferences["MONDAY"] = "evening"
		w := s.do(http.MethodPost, "/api/validate", s.key, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
		assert.Contains(t, w.Body.String(), "row 2: preferences: day Monday given twice")
	})

	t.Run("Should flag an empty employee list", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/validate", s.key, models.RosterRequest{})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
	})
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)

	t.Run("Should refuse bad credentials", func(t *testing.T) {
		w := s.do(http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should require a token for key routes", func(t *testing.T) {
		w := s.do(http.MethodGet, "/admin/keys", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Should issue, list, limit and revoke keys", func(t *testing.T) {
		token := s.adminToken()

		w := s.do(http.MethodPost, "/admin/keys", token, gin.H{"name": "store-9"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var issued struct {
			ID  uint   `json:"id"`
			Key string `json:"key"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
		owner, err := s.h.Auth.VerifyHMACKey(issued.Key)
		require.NoError(t, err)
		assert.Equal(t, "store-9", owner)

		w = s.do(http.MethodPost, "/admin/keys", token, gin.H{"name": "store-9"})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.do(http.MethodGet, "/admin/keys", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), issued.Key)
		assert.Contains(t, w.Body.String(), database.KeyPreview(issued.Key))

		path := "/admin/keys/" + strconv.FormatUint(uint64(issued.ID), 10)
		w = s.do(http.MethodPut, path, token, gin.H{"rate_limit": 5})
		assert.Equal(t, http.StatusOK, w.Code)
		var stored database.APIKey
		require.NoError(t, s.h.DB.First(&stored, issued.ID).Error)
		assert.Equal(t, 5, stored.RateLimit)

		w = s.do(http.MethodGet, "/admin/usage/"+strconv.FormatUint(uint64(issued.ID), 10), token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = s.do(http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = s.do(http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Should serve the admin page", func(t *testing.T) {
		w := s.do(http.MethodGet, "/admin", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Roster API Admin")
	})
}

func TestEmployeesFromInput(t *testing.T) {
	n := preference.New(nil)
	week := models.DefaultWeek()

	t.Run("Should let ranked win over single for the same day", func(t *testing.T) {
		employees, err := employeesFromInput([]models.EmployeeInput{{
			Name:        " Ann ",
			Preferences: map[string]string{"monday": "morning", "Tuesday": "evening", "Funday": "morning"},
			Ranked:      map[string][]string{"MONDAY": {"evening", "afternoon"}},
		}}, week, n)
		require.NoError(t, err)
		require.Len(t, employees, 1)
		assert.Equal(t, "Ann", employees[0].Name)
		assert.Equal(t, map[models.DayLabel]models.Preference{
			models.Monday:  models.Ranked{models.Evening, models.Afternoon},
			models.Tuesday: models.Single{Shift: models.Evening},
		}, employees[0].Preferences)
	})

	t.Run("Should fail the same way every time for a day named twice", func(t *testing.T) {
		in := []models.EmployeeInput{
			{Name: "Ann", Preferences: map[string]string{"Tuesday": "morning"}},
			{Name: "Ben", Preferences: map[string]string{"Monday": "morning", "monday": "evening"}},
		}
		for i := 0; i < 100; i++ {
			employees, err := employeesFromInput(in, week, n)
			assert.Nil(t, employees)
			var inputErr *scheduler.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, 2, inputErr.Row)
			assert.Equal(t, "preferences", inputErr.Field)
			assert.Equal(t, `day Monday given twice ("Monday" and "monday")`, inputErr.Reason)
		}
	})
}
