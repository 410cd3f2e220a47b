package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/catalogservice"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/docstore/memstore"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/testutil"
)

func testServer(t *testing.T) (*Server, *docstore.Gateway) {
	t.Helper()
	gw := docstore.NewGateway(memstore.New(), testutil.Logger())
	svc := catalogservice.NewService(gw, nil, testutil.Logger())
	return New(svc, "test"), gw
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_collections":    srv.listCollections,
		"list_degrees":        srv.listDegrees,
		"get_collection":      srv.getCollection,
		"update_course":       srv.updateCourse,
		"add_document":        srv.addDocument,
		"get_degree_contract": srv.getDegreeContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAddAndGetDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "add_document", map[string]any{
		"collection": "scratch",
		"document":   `{"courseTitle": "Statics", "hours": 3}`,
	})
	if r.IsError || !strings.HasPrefix(resultText(r), "inserted: ") {
		t.Fatalf("add result = %q", resultText(r))
	}

	r = callTool(t, srv, "get_collection", map[string]any{"collection": "scratch"})
	var docs []map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &docs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 || docs[0]["courseTitle"] != "Statics" {
		t.Errorf("docs = %v", docs)
	}
}

func TestAddDocumentRejectsNonObject(t *testing.T) {
	srv, _ := testServer(t)
	for _, doc := range []string{"[1]", "null", "nope"} {
		r := callTool(t, srv, "add_document", map[string]any{"collection": "scratch", "document": doc})
		if !r.IsError {
			t.Errorf("document %s: expected error", doc)
		}
	}
}

func TestListCollectionsAndDegrees(t *testing.T) {
	srv, gw := testServer(t)
	if r := callTool(t, srv, "list_collections", map[string]any{}); resultText(r) != "no collections" {
		t.Errorf("empty list = %q", resultText(r))
	}

	doc := testutil.CS101Degree(t)
	doc["totalDegreeHours"] = 3
	if _, err := gw.InsertOne(context.Background(), catalog.DegreesCollection, doc); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	if r := callTool(t, srv, "list_collections", map[string]any{}); resultText(r) != catalog.DegreesCollection {
		t.Errorf("list = %q", resultText(r))
	}

	r := callTool(t, srv, "list_degrees", map[string]any{})
	var out []degreeSummary
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Course != "X" || out[0].TotalHours != float64(3) {
		t.Errorf("degrees = %+v", out)
	}
}

func TestUpdateCourse(t *testing.T) {
	srv, gw := testServer(t)
	ctx := context.Background()
	if _, err := gw.InsertOne(ctx, catalog.DegreesCollection, testutil.BusinessDegree(t)); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	args := map[string]any{
		"collection":   catalog.DegreesCollection,
		"course_title": "Capstone",
		"field":        "hours",
		"value":        "3",
	}

	r := callTool(t, srv, "update_course", args)
	if resultText(r) != "updated: Capstone.hours" {
		t.Fatalf("update = %q", resultText(r))
	}
	doc, err := gw.FindOne(ctx, catalog.DegreesCollection, models.Document{"years.semesters.courses.title": "Capstone"})
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	for _, y := range doc.Years() {
		for _, s := range y.Semesters() {
			for _, c := range s.Courses() {
				if c.Title() == "Capstone" && c.Hours() != 3 {
					t.Errorf("hours = %v, want 3", c["hours"])
				}
			}
		}
	}

	if r := callTool(t, srv, "update_course", args); resultText(r) != "not modified: value unchanged" {
		t.Errorf("repeat = %q", resultText(r))
	}

	args["course_title"] = "Nope"
	if r := callTool(t, srv, "update_course", args); !r.IsError || !strings.Contains(resultText(r), "course not found") {
		t.Errorf("missing = %q", resultText(r))
	}

	delete(args, "field")
	if r := callTool(t, srv, "update_course", args); !r.IsError {
		t.Error("expected error without field")
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"3", float64(3)},
		{"true", true},
		{`"B"`, "B"},
		{"B", "B"},
		{"C or better", "C or better"},
	}
	for _, c := range cases {
		if got := parseValue(c.in); got != c.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestDegreeContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_degree_contract", map[string]any{})
	if !strings.Contains(resultText(r), "totalDegreeHours") {
		t.Error("contract does not describe computed fields")
	}
	contents, err := srv.readDegreeFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != degreeFormatURI {
		t.Errorf("resource = %#v", contents[0])
	}
}
