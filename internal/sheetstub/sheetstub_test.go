package sheetstub

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "stub.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testServer(t *testing.T) (*httptest.Server, *DB) {
	t.Helper()
	db := testDB(t)
	h := NewHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, db
}

func testClient(t *testing.T, srv *httptest.Server) *gateway.Client {
	return gateway.New(srv.URL+"/exec", 2*time.Second,
		gateway.WithNormalizer(dates.New(time.UTC)),
		gateway.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM rows`).Scan(&count); err != nil {
		t.Fatalf("rows table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM settings`).Scan(&count); err != nil {
		t.Fatalf("settings table missing: %v", err)
	}
}

func TestRowsAreScopedByUser(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Append("alice", "Diet", map[string]any{"name": "a"}))
	require.NoError(t, db.Append("bob", "Diet", map[string]any{"name": "b"}))

	rows, err := db.Rows("alice")
	require.NoError(t, err)
	require.Len(t, rows["Diet"], 1)
	require.JSONEq(t, `{"name":"a"}`, string(rows["Diet"][0]))
}

func TestUpdateAndDeleteByID(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Append("u", "Memo", map[string]any{"id": "m1", "content": "x"}))

	hit, err := db.Update("u", "Memo", map[string]any{"id": "m1", "content": "y", "isDone": true})
	require.NoError(t, err)
	require.True(t, hit)

	hit, err = db.Update("u", "Memo", map[string]any{"id": "nope"})
	require.NoError(t, err)
	require.False(t, hit)

	rows, _ := db.Rows("u")
	require.JSONEq(t, `{"id":"m1","content":"y","isDone":true}`, string(rows["Memo"][0]))

	hit, err = db.Delete("u", "Memo", "m1")
	require.NoError(t, err)
	require.True(t, hit)
	rows, _ = db.Rows("u")
	require.Empty(t, rows["Memo"])
}

func TestMergeSettings(t *testing.T) {
	db := testDB(t)
	s, err := db.Settings("u")
	require.NoError(t, err)
	require.Nil(t, s)

	require.NoError(t, db.MergeSettings("u", map[string]any{"name": "Ann", "dailyCalories": 2000}))
	require.NoError(t, db.MergeSettings("u", map[string]any{"dailyCalories": 1800}))

	s, err = db.Settings("u")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Ann", "dailyCalories": 1800.0}, s)
}

func TestHandler_ErrorsStay200(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{`, "invalid json"},
		{"unknown action", `{"action":"nuke"}`, "unknown action"},
		{"unknown sheet", `{"action":"add","sheet":"Sleep","data":{}}`, "unknown sheet"},
		{"null sheet add", `{"action":"add","sheet":null,"data":{}}`, "unknown sheet"},
		{"analysis without data url", `{"action":"analyzeImage","image":"abc","type":"food"}`, "data url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			b, _ := io.ReadAll(resp.Body)
			require.Contains(t, string(b), `"status":"error"`)
			require.Contains(t, string(b), tt.want)
		})
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	srv, _ := testServer(t)
	c := testClient(t, srv)
	ctx := context.Background()

	bulk, err := c.FetchAll(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, bulk.Len())
	require.True(t, bulk.Settings.Empty())

	require.NoError(t, c.Post(ctx, gateway.ActionAdd, models.CategoryFinance,
		models.Finance{Date: "2024-03-07", Time: "12:00", Amount: decimal.RequireFromString("99.5"), Note: "lunch"}, "alice"))
	require.NoError(t, c.Post(ctx, gateway.ActionAdd, models.CategoryMemo,
		models.Memo{Date: "2024/03/07", Time: "08:00", ID: "m1", Content: "call"}, "alice"))
	require.NoError(t, c.Post(ctx, gateway.ActionUpdate, models.CategoryMemo,
		models.Memo{Date: "2024/03/07", Time: "08:00", ID: "m1", Content: "call", IsDone: true}, "alice"))
	budget := decimal.NewFromInt(2500)
	require.NoError(t, c.Post(ctx, gateway.ActionSaveSettings, "",
		models.SettingsPatch{WeeklyBudget: &budget}, "alice"))

	bulk, err = c.FetchAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, bulk.Finance, 1)
	require.Equal(t, "2024/03/07", bulk.Finance[0].Date)
	require.True(t, decimal.RequireFromString("99.5").Equal(bulk.Finance[0].Amount))
	require.Len(t, bulk.Memo, 1)
	require.True(t, bulk.Memo[0].IsDone)
	require.NotNil(t, bulk.Settings.WeeklyBudget)
	require.True(t, budget.Equal(*bulk.Settings.WeeklyBudget))

	require.NoError(t, c.Post(ctx, gateway.ActionDelete, models.CategoryMemo, map[string]string{"id": "m1"}, "alice"))
	bulk, err = c.FetchAll(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, bulk.Memo)
}

func TestGatewayAnalyze(t *testing.T) {
	srv, _ := testServer(t)
	c := testClient(t, srv)

	res, err := c.Analyze(context.Background(), gateway.DataURL([]byte("fake image")), gateway.KindInBody)
	require.NoError(t, err)
	require.Equal(t, 70.0, res["weight"])
}
