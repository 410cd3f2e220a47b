// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the course catalog to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/catalogservice"
	"github.com/starford/edupath/internal/importer"
	"github.com/starford/edupath/internal/models"
)

const degreeFormatURI = "edupath://degree-format"

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalogservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalogservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"EduPath",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List the names of all catalog collections."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("list_degrees",
		mcp.WithDescription("List every degree plan with its college and credit-hour totals."),
	), s.listDegrees)

	s.mcp.AddTool(mcp.NewTool("get_collection",
		mcp.WithDescription("Return every document of a collection as JSON."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name, e.g. colleges_degrees")),
	), s.getCollection)

	s.mcp.AddTool(mcp.NewTool("update_course",
		mcp.WithDescription("Set one field of the first course with the given title. "+
			"The value is parsed as JSON when possible (3, true, \"B\"), otherwise stored as text."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Collection holding the course")),
		mcp.WithString("course_title", mcp.Required(), mcp.Description("Exact course title")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Course field to set, e.g. minGrade")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.updateCourse)

	s.mcp.AddTool(mcp.NewTool("add_document",
		mcp.WithDescription("Insert one JSON document into a collection as-is. "+
			"Degree documents must follow the edupath://degree-format contract."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("Target collection")),
		mcp.WithString("document", mcp.Required(), mcp.Description("JSON object")),
	), s.addDocument)

	s.mcp.AddTool(mcp.NewTool("get_degree_contract",
		mcp.WithDescription("Returns the degree plan document format. "+
			"Call this before adding or editing degree documents."),
	), s.getDegreeContract)

	s.mcp.AddResource(
		mcp.NewResource(degreeFormatURI, "Degree Plan Format",
			mcp.WithResourceDescription("Shape of degree plan documents and the fields computed at import."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDegreeFormatResource,
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

func toolJSON(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCollections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.svc.ListCollections(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("no collections"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

type degreeSummary struct {
	Course        string `json:"course"`
	Degree        string `json:"degree,omitempty"`
	College       string `json:"college,omitempty"`
	TotalHours    any    `json:"totalDegreeHours,omitempty"`
	AdvancedHours any    `json:"advancedMinimumCreditHours,omitempty"`
}

func (s *Server) listDegrees(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListDegrees(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]degreeSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, degreeSummary{
			Course:        d.StringField("course"),
			Degree:        d.StringField("degree"),
			College:       d.StringField("college"),
			TotalHours:    d[importer.FieldTotalDegreeHours],
			AdvancedHours: d[importer.FieldAdvancedMinimumCreditHours],
		})
	}
	return toolJSON(out)
}

func (s *Server) getCollection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docs, err := s.svc.GetData(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(docs)
}

func (s *Server) updateCourse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in catalogservice.UpdateCourseRequest
	var err error
	if in.Collection, err = req.RequireString("collection"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.CourseTitle, err = req.RequireString("course_title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Field, err = req.RequireString("field"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in.Value = parseValue(raw)

	res, err := s.svc.UpdateCourse(ctx, in)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("course not found: %s", in.CourseTitle)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	case !res.Updated:
		return mcp.NewToolResultText("not modified: value unchanged"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s.%s", in.CourseTitle, in.Field)), nil
}

// parseValue decodes raw as a JSON scalar or structure, falling back to the
// plain string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func (s *Server) addDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		return mcp.NewToolResultError("document must be a JSON object"), nil
	}
	id, err := s.svc.AddData(ctx, collection, doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("inserted: %s", id)), nil
}

func (s *Server) getDegreeContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DegreeFormatContract), nil
}

func (s *Server) readDegreeFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      degreeFormatURI,
			MIMEType: "text/markdown",
			Text:     DegreeFormatContract,
		},
	}, nil
}
