// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the dashboard to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/starford/lifeos/internal/dayview"
	"github.com/starford/lifeos/internal/models"
	"github.com/starford/lifeos/internal/session"
)

const recordFormatURI = "lifeos://record-format"

// Server wraps the MCP server with dashboard tools.
type Server struct {
	mcp  *server.MCPServer
	sess *session.Controller
	agg  *dayview.Aggregator
}

// New creates a new MCP server with all tools registered.
func New(sess *session.Controller) *Server {
	s := &Server{sess: sess, agg: dayview.New(sess.Normalizer())}

	s.mcp = server.NewMCPServer(
		"LifeOS",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	dateOpt := mcp.WithString("date", mcp.Description("Day of the record, e.g. 2024-03-07. Defaults to today."))
	timeOpt := mcp.WithString("time", mcp.Description("HH:MM label. Defaults to now."))

	s.mcp.AddTool(mcp.NewTool("login",
		mcp.WithDescription("Open a session for a user and load their records from the sheet."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Opaque user identifier")),
	), s.login)

	s.mcp.AddTool(mcp.NewTool("day_summary",
		mcp.WithDescription("Timeline, totals, memos and budget figures for one day."),
		mcp.WithString("date", mcp.Description("Day to summarize. Defaults to today.")),
	), s.daySummary)

	s.mcp.AddTool(mcp.NewTool("weekly_budget",
		mcp.WithDescription("Spend since Monday and what is left of the weekly budget."),
		mcp.WithString("date", mcp.Description("Reference day. Defaults to today.")),
	), s.weeklyBudget)

	s.mcp.AddTool(mcp.NewTool("add_expense",
		mcp.WithDescription("Record an expense. Read the record format first via "+
			"the get_record_format tool or the "+recordFormatURI+" resource."),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Amount spent, e.g. \"12.30\"")),
		mcp.WithString("note", mcp.Description("What the money was spent on")),
		mcp.WithString("categoryId", mcp.Description("Expense category id")),
		dateOpt, timeOpt,
	), s.addRecord(models.CategoryFinance))

	s.mcp.AddTool(mcp.NewTool("add_meal",
		mcp.WithDescription("Record a meal with its calories and protein."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Meal name")),
		mcp.WithNumber("calories", mcp.Description("Energy in kcal")),
		mcp.WithNumber("protein", mcp.Description("Protein in grams")),
		dateOpt, timeOpt,
	), s.addRecord(models.CategoryDiet))

	s.mcp.AddTool(mcp.NewTool("add_workout",
		mcp.WithDescription("Record an exercise session."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Activity, e.g. Running")),
		mcp.WithNumber("duration", mcp.Description("Minutes. Defaults to 60.")),
		mcp.WithNumber("calories", mcp.Description("kcal burned. Defaults to 300.")),
		dateOpt, timeOpt,
	), s.addRecord(models.CategoryWorkout))

	s.mcp.AddTool(mcp.NewTool("add_memo",
		mcp.WithDescription("Add a to-do memo."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Memo text")),
		dateOpt,
	), s.addRecord(models.CategoryMemo))

	s.mcp.AddTool(mcp.NewTool("toggle_memo",
		mcp.WithDescription("Flip the done flag of a memo."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memo id as returned by add_memo or day_summary")),
	), s.toggleMemo)

	s.mcp.AddTool(mcp.NewTool("analyze_meal_photo",
		mcp.WithDescription("Estimate a meal from a photo given as a data URI or an http(s) URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/...;base64,... or https://...")),
		mcp.WithBoolean("save", mcp.Description("Also record the estimate as a meal")),
	), s.analyzeMealPhoto)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns the record format contract. "+
			"Call this before adding records to learn the accepted fields."),
	), s.getRecordFormat)

	s.mcp.AddResource(
		mcp.NewResource(recordFormatURI, "Record Format Contract",
			mcp.WithResourceDescription("Categories and fields of dashboard records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) login(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sess.Login(ctx, userID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.sess.Snapshot()
	return mcp.NewToolResultText(fmt.Sprintf("logged in as %s (%d records)", userID, snap.Len())), nil
}

// day returns the "date" argument as a day key, defaulting to today.
func (s *Server) day(req mcp.CallToolRequest) (string, error) {
	raw := strings.TrimSpace(cast.ToString(req.GetArguments()["date"]))
	norm := s.sess.Normalizer()
	if raw == "" {
		return norm.Today(), nil
	}
	if _, ok := norm.Parse(raw); !ok {
		return "", fmt.Errorf("invalid date: %s", raw)
	}
	return norm.Normalize(raw), nil
}

func (s *Server) daySummary(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := s.day(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.agg.Summarize(s.sess.Snapshot(), day)), nil
}

type budgetResult struct {
	WeekStart string          `json:"weekStart"`
	Date      string          `json:"date"`
	Spend     decimal.Decimal `json:"spend"`
	Budget    decimal.Decimal `json:"budget"`
	Remaining decimal.Decimal `json:"remaining"`
}

func (s *Server) weeklyBudget(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := s.day(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap := s.sess.Snapshot()
	spend := s.agg.WeeklySpend(snap.Finance, day)
	return jsonResult(budgetResult{
		WeekStart: s.sess.Normalizer().WeekStart(day),
		Date:      day,
		Spend:     spend,
		Budget:    snap.Settings.WeeklyBudget,
		Remaining: dayview.WeeklyBudgetRemaining(snap.Settings, spend),
	}), nil
}

// addRecord decodes the tool arguments as a record of category c.
func (s *Server) addRecord(c models.Category) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		if raw := cast.ToString(args["date"]); raw != "" {
			if _, ok := s.sess.Normalizer().Parse(raw); !ok {
				return mcp.NewToolResultError("invalid date: " + raw), nil
			}
		}
		rec, _ := models.Decode(c, args, s.sess.Normalizer().Normalize)
		if err := validation.Validate(rec); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		saved, err := s.sess.Add(rec)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(saved), nil
	}
}

func (s *Server) toggleMemo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.sess.ToggleMemo(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m), nil
}

func (s *Server) getRecordFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      recordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
